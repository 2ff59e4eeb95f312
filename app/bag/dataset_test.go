package bag

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateDataset(t *testing.T) {
	d := GenerateDataset(7779, "https://chars.example/bags/", "https://img.example", "0xff9c")
	if d.Len() != 7779 {
		t.Fatalf("wrong size, have: %d", d.Len())
	}

	r := d.Find(42)
	if r == nil {
		t.Fatal("expected bag 42")
	}
	if r.Name != "Bag #42" || r.TokenID != 42 {
		t.Errorf("wrong record: %+v", r)
	}
	if r.CharacterImage != "https://chars.example/bags/0042.png" {
		t.Errorf("wrong character image: %s", r.CharacterImage)
	}
	if r.Image != "https://img.example/0xff9c/42.svg" {
		t.Errorf("wrong image: %s", r.Image)
	}

	if d.Find(0) != nil || d.Find(7780) != nil {
		t.Error("ids outside the collection must not be found")
	}

	r.Name = "changed"
	if d.Find(42).Name != "Bag #42" {
		t.Error("find must return a copy")
	}
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loot.json")
	data := `[{"id":1,"name":"Bag #1","image":"a.svg"},{"id":42,"tokenId":42,"name":"Bag #42"}]`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDataset(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 2 {
		t.Errorf("wrong size, have: %d", d.Len())
	}
	if r := d.Find(1); r == nil || r.TokenID != 1 || r.Image != "a.svg" {
		t.Errorf("wrong record: %+v", r)
	}
}

func TestLoadDatasetInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loot.json")
	if err := os.WriteFile(path, []byte(`[{"name":"no id"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDataset(path); err == nil {
		t.Error("records without id must fail")
	}
	if _, err := LoadDataset(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file must fail")
	}
}
