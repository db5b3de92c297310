package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jask/rowselect/internal/database/repository"
)

const viewFile = "view.json"

// View is the remembered sort of one grid.
type View struct {
	Sort repository.SortColumn `json:"sort"`
	Desc bool                  `json:"desc"`
}

func viewPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "rowselect")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, viewFile), nil
}

func loadAll() (map[string]View, error) {
	path, err := viewPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]View{}, nil
		}
		return nil, err
	}
	views := map[string]View{}
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// SaveView stores the view for gridID, keeping other grids' entries.
func SaveView(gridID string, v View) error {
	views, err := loadAll()
	if err != nil {
		return err
	}
	views[gridID] = v
	path, err := viewPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadView returns the stored view for gridID, or position order when none is
// stored.
func LoadView(gridID string) (View, error) {
	views, err := loadAll()
	if err != nil {
		return View{Sort: repository.SortPosition}, err
	}
	v, ok := views[gridID]
	if !ok || v.Sort == "" {
		return View{Sort: repository.SortPosition}, nil
	}
	return v, nil
}
