//go:build linux

package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connmon/config"
	"connmon/controller"
	"connmon/display"
	"connmon/sampler"
	"connmon/system"

	ui "github.com/gizak/termui/v3"
)

func main() {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// 1. 初始化 UI 系统 (TermUI)
	if err := ui.Init(); err != nil {
		log.Fatalf("failed to init termui: %v", err)
	}
	defer ui.Close()

	// 终端由 termui 接管之后，任何输出都会把画面弄乱
	logger := log.New(io.Discard, "connmon: ", log.LstdFlags)

	sys := system.New(cfg.ConnectionKind)
	ctl := controller.New(sampler.New(sys, cfg, logger), sys, cfg, logger)
	screen := display.NewScreen()

	ctx := context.Background()
	draw := func() {
		screen.SetFrame(ctl.Frame())
		ui.Render(screen)
	}

	// 2. 先采样一次，冷启动时速率都是 0
	ctl.Resize(ui.TerminalDimensions())
	ctl.Tick(ctx)
	draw()

	// 3. 事件循环：按键、窗口大小变化、定时刷新都在这一个 goroutine 里同步处理，
	// 上一轮渲染完成之前不会开始下一轮采样
	uiEvents := ui.PollEvents()
	ticker := time.NewTicker(cfg.TickPeriod)
	defer ticker.Stop()

	// 外部发来的中断信号也按正常退出处理
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case e := <-uiEvents:
			switch e.Type {
			case ui.KeyboardEvent:
				switch ctl.HandleKey(ctx, e.ID) {
				case controller.ActionQuit:
					return
				case controller.ActionRedraw:
					draw()
				}
			case ui.ResizeEvent:
				payload := e.Payload.(ui.Resize)
				ctl.Resize(payload.Width, payload.Height)
				ui.Clear()
				draw()
			}
		case <-sigs:
			return
		case <-ticker.C:
			if ctl.Tick(ctx) {
				draw()
			}
		}
	}
}
