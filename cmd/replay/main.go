package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/palemoky/lingo-monopoly/internal/config"
	"github.com/palemoky/lingo-monopoly/internal/host"
	"github.com/palemoky/lingo-monopoly/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	sessionID := flag.String("session", "", "要回放的会话 ID")
	list := flag.Int("list", 0, "列出最近 N 局的会话 ID")
	player := flag.String("player", "", "配合 -list 只列出该玩家完成的对局")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	h, err := host.New(cfg)
	if err != nil {
		log.Fatalf("启动失败: %v", err)
	}
	defer h.Close()

	rj := h.RedisJournal()
	if rj == nil {
		log.Fatal("回放需要 Redis 中的游戏历程")
	}
	ctx := context.Background()

	if *list > 0 {
		var ids []string
		if *player != "" {
			ids, err = rj.PlayerSessions(ctx, *player, *list)
		} else {
			ids, err = rj.RecentSessions(ctx, *list)
		}
		if err != nil {
			log.Fatalf("读取会话列表失败: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}
	if *sessionID == "" {
		log.Fatal("请用 -session 指定会话 ID，或用 -list N 查看最近的会话")
	}

	hist, err := rj.Load(ctx, *sessionID)
	if err != nil {
		log.Fatalf("读取历程失败: %v", err)
	}
	fmt.Printf("会话 %s（地图 %s），共 %d 条记录\n", hist.Meta.SessionID, hist.Meta.BoardID, len(hist.Records))
	for _, r := range hist.Records {
		fmt.Printf("  %s  %s\n", r.Timestamp.Local().Format("15:04:05"), r.Description)
	}

	s, err := h.Engine().Replay(ctx, hist)
	if err != nil {
		log.Fatalf("回放失败: %v", err)
	}

	fmt.Println("回放结果：")
	for _, p := range s.Players {
		fmt.Printf("  %d %-6s 位置 %-4s 圈数 %d 货币 %d %s\n", p.ID, p.Name, p.CurrentNodeID, p.LapCount, p.Currency, p.Status)
	}
	if s.Winner != nil {
		if w := s.Player(s.Winner.PlayerID); w != nil {
			fmt.Printf("🏆 %s 获胜（%s）\n", w.Name, s.Winner.Reason)
		}
	} else {
		fmt.Printf("对局状态：%s\n", s.Status)
	}

	if hist.Final != nil && hist.Final.Winner != nil && s.Winner != nil && *hist.Final.Winner != *s.Winner {
		log.Fatalf("回放结果与历程记录不一致：记录胜者 %d，回放胜者 %d", hist.Final.Winner.PlayerID, s.Winner.PlayerID)
	}
}
