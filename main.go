package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ByLCY/labelsheet/config"
	"github.com/ByLCY/labelsheet/document"
	"github.com/ByLCY/labelsheet/dsl"
	"github.com/ByLCY/labelsheet/layout"
	canvasrenderer "github.com/ByLCY/labelsheet/renderer/canvas"
	"github.com/ByLCY/labelsheet/server"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径")
	input := flag.String("in", "", "队列文件路径")
	output := flag.String("out", "", "PDF 输出路径（默认使用配置中的文件名模板）")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	serve := flag.Bool("serve", false, "以 HTTP 服务方式运行")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	// 配置中的相对字体路径以配置文件所在目录为准
	engine := canvasrenderer.NewRenderer(filepath.Dir(*configPath))
	if *serve {
		if err := runServer(cfg, engine); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: labelsheet -in queue.lbl [-out out.pdf] [-debug layout.json] | -serve [-config config.yaml]")
		os.Exit(2)
	}
	asm := document.NewAssembler(engine, document.NewMemoryStore(), assemblerOptions(cfg))
	path, err := run(context.Background(), asm, *input, *output, *debug)
	if err != nil {
		log.Fatalf("[ERROR] 生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", path)
}

func assemblerOptions(cfg *config.Config) document.Options {
	return document.Options{
		Grid:             cfg.Sheet,
		FilenameTemplate: cfg.Output.Filename,
		Author:           cfg.Output.Author,
		Creator:          cfg.Output.Creator,
		Fonts:            cfg.Fonts.Map(),
	}
}

// run 串联解析、布局与渲染，返回写出的 PDF 路径。
func run(ctx context.Context, asm *document.Assembler, inputPath, outputPath, debugPath string) (string, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("无法打开队列文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return "", fmt.Errorf("解析队列文件失败: %w", err)
	}
	sheet, err := dsl.Compile(doc)
	if err != nil {
		return "", err
	}
	req := document.Request{Mode: sheet.Mode, Items: sheet.Items, Options: sheet.Options}

	if debugPath != "" {
		res, err := asm.Layout(ctx, req)
		if err != nil {
			return "", fmt.Errorf("布局计算失败: %w", err)
		}
		if err := writeDebug(res, debugPath); err != nil {
			return "", err
		}
	}

	h, err := asm.Render(ctx, req)
	if err != nil {
		return "", err
	}
	defer asm.Release(ctx, h.ID)
	_, data, err := asm.Open(ctx, h.ID)
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = h.Filename
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	if h.Overflows > 0 {
		log.Printf("[WARN] %d 个文本块在最小字号下仍然超出标签宽度", h.Overflows)
	}
	return outputPath, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func newStore(cfg *config.Config) document.Store {
	if cfg.Store.Driver == "redis" {
		log.Printf("[INFO] store: redis (ttl %s)", cfg.Store.TTL)
		return document.NewRedisStore(document.MustRedis(cfg.Store.RedisURL), cfg.Store.TTL)
	}
	log.Printf("[INFO] store: memory")
	return document.NewMemoryStore()
}

func runServer(cfg *config.Config, engine *canvasrenderer.Renderer) error {
	log.Printf("[INFO] mode:%s", cfg.Mode)

	asm := document.NewAssembler(engine, newStore(cfg), assemblerOptions(cfg))
	preview := document.NewPreview(asm)
	r := server.NewEngine(server.NewHandler(asm, preview, cfg.MaxItems), server.Options{
		Mode:        cfg.Mode,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{Addr: cfg.Listen, Handler: r}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	preview.CloseAll(ctx)
	return err
}
