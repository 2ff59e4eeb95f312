package bag

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"lootexchange/app/config"
	"lootexchange/app/models"
	"lootexchange/pkg/format"
)

// Dataset is the static per-bag reference data, built once at startup.
type Dataset struct {
	records map[int]*models.BagRecord
}

// NewDataset loads the dataset file when configured, otherwise generates
// records for ids 1..count.
func NewDataset(cfg config.Dataset, collection string) (*Dataset, error) {
	if cfg.Path != "" {
		return LoadDataset(cfg.Path)
	}
	return GenerateDataset(cfg.Count, cfg.CharacterImageBase, cfg.ImageBase, collection), nil
}

func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the dataset")
	}
	var records []*models.BagRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal the dataset")
	}

	d := &Dataset{records: make(map[int]*models.BagRecord, len(records))}
	for _, r := range records {
		if r.ID <= 0 {
			return nil, errors.Errorf("invalid dataset record id %d", r.ID)
		}
		if r.TokenID == 0 {
			r.TokenID = r.ID
		}
		d.records[r.ID] = r
	}
	return d, nil
}

func GenerateDataset(count int, characterImageBase, imageBase, collection string) *Dataset {
	d := &Dataset{records: make(map[int]*models.BagRecord, count)}
	for id := 1; id <= count; id++ {
		d.records[id] = &models.BagRecord{
			ID:             id,
			TokenID:        id,
			Name:           fmt.Sprintf("Bag #%d", id),
			Image:          format.BagImageURL(imageBase, collection, id),
			CharacterImage: format.CharacterImageURL(characterImageBase, id),
		}
	}
	return d
}

// Find returns a copy of the record or nil for unknown ids.
func (d *Dataset) Find(id int) *models.BagRecord {
	r, ok := d.records[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (d *Dataset) Len() int {
	return len(d.records)
}
