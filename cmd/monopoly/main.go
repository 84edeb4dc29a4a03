package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/palemoky/lingo-monopoly/internal/config"
	"github.com/palemoky/lingo-monopoly/internal/host"
	"github.com/palemoky/lingo-monopoly/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := host.NewConsole(h, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Printf("命令行退出: %v", err)
	}

	// 退出前补写积压的历程
	for _, id := range h.Engine().Sessions() {
		if err := h.Engine().Flush(context.Background(), id); err != nil {
			logger.WithSession(id).WithError(err).Warn("退出时历程写入失败")
		}
	}
}
