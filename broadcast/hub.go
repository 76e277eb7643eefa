package broadcast

import (
	"errors"
	"sync"

	"icchiserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 配信イベントの種別
type EventType string

const (
	EventSnapshot EventType = "snapshot" // コミット済みルーム状態
	EventRemoved  EventType = "removed"  // 購読者が名簿から消えた（終端）
	EventExpired  EventType = "expired"  // ルームがTTL超過で削除された（終端）
	EventDeleted  EventType = "deleted"  // ルームが削除された（終端）
)

// Event は購読者へ届く1件の配信です。終端イベントの後にチャネルは閉じられる。
type Event struct {
	Type EventType            `json:"type"`
	Room *models.RoomSnapshot `json:"room,omitempty"`
}

// ErrNotMember は名簿にいない参加者の購読要求
var ErrNotMember = errors.New("participant is not a member of the room")

// 購読チャネルのバッファ長。溢れた場合は古いスナップショットを捨てて最新を入れる
// （配信はexactly-onceではない。購読側は値で冪等に扱う）。
const subscriberBuffer = 16

type subscriber struct {
	id            uint64
	participantID uint
	ch            chan Event
}

// Subscription は購読ハンドル。Closeで配信停止とサーバー側の解放を行う。
type Subscription struct {
	C <-chan Event

	hub    *Hub
	roomID uint
	id     uint64
	once   sync.Once
}

// Close は購読を解除します。戻る時点でサーバー側のwatchは解放済み。
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.roomID, s.id)
	})
}

// Hub はコミットごとのスナップショットを購読者へ配信します。
// 書き込み側はPublishでブロックしない（チャネル送信はノンブロッキング）。
type Hub struct {
	db     *gorm.DB
	logger *zap.Logger

	mu     sync.Mutex
	rooms  map[uint]map[uint64]*subscriber
	nextID uint64

	// Publishを直列化してスナップショットがコミット順で届くようにする
	pubMu sync.Mutex
}

func NewHub(db *gorm.DB, logger *zap.Logger) *Hub {
	return &Hub{
		db:     db,
		logger: logger,
		rooms:  make(map[uint]map[uint64]*subscriber),
	}
}

// Subscribe は参加者をルームの購読者として登録し、直近のスナップショットを
// 初回イベントとして積んだ購読ハンドルを返します。
func (h *Hub) Subscribe(roomID uint, participantID uint) (*Subscription, error) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	snapshot, err := BuildSnapshot(h.db, roomID)
	if err != nil {
		return nil, err
	}
	if !inRoster(snapshot, participantID) {
		return nil, ErrNotMember
	}

	sub := &subscriber{
		participantID: participantID,
		ch:            make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[uint64]*subscriber)
	}
	h.rooms[roomID][sub.id] = sub
	deliver(sub, Event{Type: EventSnapshot, Room: snapshot})
	h.mu.Unlock()

	return &Subscription{C: sub.ch, hub: h, roomID: roomID, id: sub.id}, nil
}

// Publish はルームの最新状態を読み直して全購読者へ配信します。
// コミットした書き込み側から同期的に呼ばれるが、購読者の消費は待たない。
func (h *Hub) Publish(roomID uint) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	subs := h.rooms[roomID]
	h.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	snapshot, err := BuildSnapshot(h.db, roomID)
	if err != nil {
		h.logger.Error("スナップショットの構築に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.rooms[roomID] {
		if !inRoster(snapshot, sub.participantID) {
			// 名簿から消えた購読者には終端イベントを送って閉じる
			deliver(sub, Event{Type: EventRemoved})
			close(sub.ch)
			delete(h.rooms[roomID], id)
			continue
		}
		deliver(sub, Event{Type: EventSnapshot, Room: snapshot})
	}
}

// NotifyClosed はルーム削除時に全購読者へ終端イベントを送って購読を閉じます。
// 掃除ジョブ（TTL超過）からはEventExpiredで呼ばれる。
func (h *Hub) NotifyClosed(roomID uint, eventType EventType) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.rooms[roomID] {
		deliver(sub, Event{Type: eventType})
		close(sub.ch)
		delete(h.rooms[roomID], id)
	}
	delete(h.rooms, roomID)
}

func (h *Hub) remove(roomID uint, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[roomID]; ok {
		if sub, ok := subs[id]; ok {
			close(sub.ch)
			delete(subs, id)
		}
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// deliver はノンブロッキング送信。バッファが溢れたら最古を捨てて最新を優先する。
func deliver(sub *subscriber, ev Event) {
	select {
	case sub.ch <- ev:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func inRoster(snapshot *models.RoomSnapshot, participantID uint) bool {
	for _, p := range snapshot.Participants {
		if p.ID == participantID {
			return true
		}
	}
	return false
}
