package main

import (
	"context"
	"fmt"
	"log"

	"github.com/artgallery/internal/config"
	"github.com/artgallery/internal/db"
	"github.com/artgallery/internal/service"
	"github.com/artgallery/internal/storage"
	"gorm.io/gorm"
)

type sampleDrawing struct {
	Title  string
	Medium string
	Width  float64
	Height float64
	IsBw   bool
}

var sampleDrawings = []sampleDrawing{
	{Title: "Harbor at Dusk", Medium: "watercolor", Width: 12, Height: 9, IsBw: false},
	{Title: "Study #1", Medium: "ink", Width: 8, Height: 10, IsBw: true},
	{Title: "Old Oak", Medium: "graphite", Width: 11, Height: 14, IsBw: true},
	{Title: "Market Morning", Medium: "gouache", Width: 16, Height: 12, IsBw: false},
	{Title: "Self Portrait", Medium: "charcoal", Width: 18, Height: 24, IsBw: true},
	{Title: "Lemon Tree", Medium: "oil", Width: 20, Height: 16, IsBw: false},
}

// 示例数据生成器，用于本地调试前端
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}
	gdb, err := db.Open(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, DSN: cfg.DatabaseDSN})
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, storage.Options{
		Driver:    cfg.StorageDriver,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
		BaseURL:   cfg.StorageBaseURL,
		LocalDir:  cfg.UploadDir,
	})
	if err != nil {
		log.Fatal("对象存储初始化失败:", err)
	}

	created, err := seedDrawings(ctx, gdb, store)
	if err != nil {
		log.Fatal("生成示例作品失败:", err)
	}
	if created == 0 {
		fmt.Println("作品已存在，跳过创建")
		return
	}
	fmt.Printf("✅ 已创建 %d 个示例作品\n", created)
}

// seedDrawings 在空库中写入示例作品并建立两个作品集的排序，图片地址指向尚未上传的对象
func seedDrawings(ctx context.Context, gdb *gorm.DB, store storage.ObjectStore) (int, error) {
	var count int64
	if err := gdb.WithContext(ctx).Model(&db.Drawing{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	var bw, color []uint
	for _, sample := range sampleDrawings {
		key := service.StorageKey(sample.Title, "sample.png", "png")
		drawing := db.Drawing{
			Title:  sample.Title,
			URL:    store.PublicURL(key),
			Medium: sample.Medium,
			Width:  sample.Width,
			Height: sample.Height,
			IsBw:   sample.IsBw,
		}
		if err := gdb.WithContext(ctx).Create(&drawing).Error; err != nil {
			return 0, fmt.Errorf("create %q: %w", sample.Title, err)
		}
		if drawing.IsBw {
			bw = append(bw, drawing.ID)
		} else {
			color = append(color, drawing.ID)
		}
	}

	if err := service.NewOrderingService(gdb).Replace(ctx, bw, color); err != nil {
		return 0, err
	}
	return len(sampleDrawings), nil
}
