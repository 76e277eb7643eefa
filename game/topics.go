package game

import (
	"math/rand"
	"sync"
	"time"
)

// ラウンド開始時に割り当てるお題の一覧
var topics = []string{
	"朝ごはんといえば？",
	"赤いものといえば？",
	"丸いものといえば？",
	"夏といえば？",
	"冬といえば？",
	"学校にあるものといえば？",
	"コンビニで買うものといえば？",
	"お祭りといえば？",
	"旅行に持っていくものといえば？",
	"おにぎりの具といえば？",
	"動物園の人気者といえば？",
	"温泉といえば？",
	"映画館で食べるものといえば？",
	"雨の日に使うものといえば？",
	"誕生日プレゼントといえば？",
	"海といえば？",
	"鍋の具といえば？",
	"文房具といえば？",
	"休日にすることといえば？",
	"ラーメンのトッピングといえば？",
	"遠足のおやつといえば？",
	"スポーツといえば？",
	"果物といえば？",
	"カラオケで歌う曲のジャンルといえば？",
}

var (
	topicMu   sync.Mutex
	topicRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func pickTopic() string {
	topicMu.Lock()
	defer topicMu.Unlock()
	return topics[topicRand.Intn(len(topics))]
}

// pickTopicExcluding は現在のお題と異なるお題を返します（変更操作用）。
func pickTopicExcluding(current string) string {
	topicMu.Lock()
	defer topicMu.Unlock()
	for i := 0; i < 10; i++ {
		topic := topics[topicRand.Intn(len(topics))]
		if topic != current {
			return topic
		}
	}
	return topics[topicRand.Intn(len(topics))]
}
