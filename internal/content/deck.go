// Package content 提供挑战内容：本地 YAML 题库与远端情境对话服务
package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/palemoky/lingo-monopoly/internal/game"
)

// Word 词汇题
type Word struct {
	ID          string `yaml:"id"`
	Word        string `yaml:"word"`
	Translation string `yaml:"translation"`
	Topic       string `yaml:"topic"`
	Theme       string `yaml:"theme"` // 空值表示所有主题通用
}

// Line 情境对话中的一句台词
type Line struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// Deck 本地题库，按顺序轮流出题
type Deck struct {
	Vocabulary []Word            `yaml:"vocabulary"`
	Dialogues  map[string][]Line `yaml:"dialogues"` // key: scenario/train
	Topics     map[string][]Line `yaml:"topics"`    // 按话题覆盖对话

	mu    sync.Mutex
	next  map[string]int
	theme string
}

// LoadDeck 从文件加载题库
func LoadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDeck(data)
}

// ParseDeck 解析 YAML 题库
func ParseDeck(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deck: %w", err)
	}
	if len(d.Vocabulary) == 0 {
		return nil, errors.New("deck has no vocabulary")
	}
	for i, w := range d.Vocabulary {
		if w.Word == "" || w.Translation == "" {
			return nil, fmt.Errorf("vocabulary #%d needs both word and translation", i)
		}
		if w.ID == "" {
			d.Vocabulary[i].ID = fmt.Sprintf("word-%d", i+1)
		}
	}
	d.next = make(map[string]int)
	return &d, nil
}

// NextPrompt 实现 game.ContentProvider
func (d *Deck) NextPrompt(_ context.Context, kind game.ChallengeKind, cc game.ChallengeContext) (game.Prompt, error) {
	if kind == game.KindVocabulary {
		w := d.nextWord(cc.Topic)
		return game.Prompt{
			ID:       w.ID,
			Text:     w.Translation,
			Accepted: []string{w.Word, w.Translation},
		}, nil
	}

	lines := d.Topics[cc.Topic]
	if len(lines) == 0 {
		lines = d.Dialogues[kind.String()]
	}
	if len(lines) == 0 {
		return game.Prompt{}, fmt.Errorf("deck has no %s dialogue", kind)
	}
	l := lines[cc.Turn%len(lines)]
	id := l.ID
	if id == "" {
		id = fmt.Sprintf("%s-%d", kind, cc.Turn%len(lines)+1)
	}
	return game.Prompt{ID: id, Text: l.Text}, nil
}

// UseTheme 只出该主题（以及通用）的词汇，空值表示不限主题
func (d *Deck) UseTheme(theme string) error {
	if theme != "" && !slices.ContainsFunc(d.Vocabulary, func(w Word) bool { return w.Theme == theme }) {
		return fmt.Errorf("deck has no vocabulary for theme %q", theme)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.theme = theme
	clear(d.next)
	return nil
}

// nextWord 优先出同话题的词，没有则从当前主题的全部词汇中轮流出
func (d *Deck) nextWord(topic string) Word {
	d.mu.Lock()
	theme := d.theme
	d.mu.Unlock()

	pool := d.Vocabulary
	if theme != "" {
		pool = slices.DeleteFunc(slices.Clone(pool), func(w Word) bool {
			return w.Theme != "" && w.Theme != theme
		})
	}
	if topic != "" {
		var matched []Word
		for _, w := range pool {
			if w.Topic == topic {
				matched = append(matched, w)
			}
		}
		if len(matched) > 0 {
			pool = matched
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.next[topic] % len(pool)
	d.next[topic]++
	return pool[i]
}
