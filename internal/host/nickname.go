package host

import (
	"math/rand/v2"
	"slices"
)

// 昵称词库，偏交通主题
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "酷炫的",
		"优雅的", "可爱的", "机智的", "潇洒的", "淡定的",
		"闪亮的", "迷路的", "赶车的", "悠闲的", "飞快的",
	}

	nouns = []string{
		"乘客", "司机", "列车长", "骑手", "导游",
		"熊猫", "老虎", "兔子", "狐狸", "企鹅",
		"柯基", "柴犬", "龙猫", "松鼠", "羊驼",
	}
)

// generateNickname 生成随机昵称
func generateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}

// generateNicknames 生成 n 个互不相同的昵称
func generateNicknames(n int) []string {
	names := make([]string, 0, n)
	for len(names) < n {
		name := generateNickname()
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}
