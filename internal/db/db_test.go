package db

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm/logger"
)

func TestOpenSQLiteCreatesParentDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gallery.db")

	gdb, err := Open(Options{Driver: DriverSQLite, Path: path, LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if !gdb.Migrator().HasTable(&Drawing{}) {
		t.Fatal("expected drawings table to exist")
	}
	if !gdb.Migrator().HasTable(&DrawingOrder{}) {
		t.Fatal("expected drawing_orders table to exist")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "mongo"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := Open(Options{Driver: DriverPostgres}); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
}

func TestIDListScanAndValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  []uint
	}{
		{name: "nil", input: nil, want: []uint{}},
		{name: "empty string", input: "", want: []uint{}},
		{name: "null json", input: []byte("null"), want: []uint{}},
		{name: "bytes", input: []byte("[3,1,2]"), want: []uint{3, 1, 2}},
		{name: "string with duplicates", input: "[5,5]", want: []uint{5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list IDList
			if err := list.Scan(tt.input); err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, list)
			}
			for i := range tt.want {
				if list[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, list)
				}
			}
		})
	}

	var list IDList
	if err := list.Scan(42); err == nil {
		t.Fatal("expected error for unsupported scan type")
	}

	value, err := IDList(nil).Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if value != "[]" {
		t.Fatalf("expected nil list to encode as [], got %v", value)
	}
}

func TestDrawingOrderSequenceDefaultsToEmpty(t *testing.T) {
	order := DrawingOrder{BW: IDList{1}}
	if got := order.Sequence(GalleryColor); got == nil || len(got) != 0 {
		t.Fatalf("expected empty color sequence, got %v", got)
	}

	order.SetSequence(GalleryColor, IDList{7, 8})
	if got := order.Sequence(GalleryColor); len(got) != 2 || got[0] != 7 {
		t.Fatalf("unexpected color sequence %v", got)
	}
	if (Drawing{IsBw: true}).Gallery() != GalleryBW {
		t.Fatal("expected bw drawing to report bw gallery")
	}
}
