// Package catalog loads the static achievement catalog shipped with the
// deployment.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/achievement-hub/api/models"
)

type achievementsFile struct {
	Achievements []models.Achievement `json:"achievements"`
}

type areasFile struct {
	Areas []models.Area `json:"areas"`
}

// Catalog is the fixed ordered list of achievements and areas. Immutable
// after load.
type Catalog struct {
	achievements []models.Achievement
	areas        []models.Area
	byID         map[int]models.Achievement
}

// Load reads achievements.json and areas.json from dir. Achievement ids are
// assigned sequentially when the file omits or duplicates them.
func Load(dir string) (*Catalog, error) {
	achievements, err := loadAchievements(filepath.Join(dir, "achievements.json"))
	if err != nil {
		return nil, err
	}

	areas, err := loadAreas(filepath.Join(dir, "areas.json"))
	if err != nil {
		return nil, err
	}

	byID := make(map[int]models.Achievement, len(achievements))
	for _, achievement := range achievements {
		byID[achievement.ID] = achievement
	}

	return &Catalog{
		achievements: achievements,
		areas:        areas,
		byID:         byID,
	}, nil
}

func loadAchievements(path string) ([]models.Achievement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading achievements file: %v", err)
	}

	var file achievementsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing achievements file: %v", err)
	}

	return autoGenerateIDs(file.Achievements), nil
}

func loadAreas(path string) ([]models.Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading areas file: %v", err)
	}

	var file areasFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing areas file: %v", err)
	}

	return file.Areas, nil
}

// autoGenerateIDs assigns sequential ids when the catalog file does not
// already carry a clean 1..n sequence.
func autoGenerateIDs(achievements []models.Achievement) []models.Achievement {
	hasAllIDs := true
	for i, achievement := range achievements {
		if achievement.ID != i+1 {
			hasAllIDs = false
			break
		}
	}
	if hasAllIDs {
		return achievements
	}

	out := make([]models.Achievement, len(achievements))
	for i, achievement := range achievements {
		achievement.ID = i + 1
		out[i] = achievement
	}
	return out
}

// Achievements returns the catalog in file order.
func (c *Catalog) Achievements() []models.Achievement {
	out := make([]models.Achievement, len(c.achievements))
	copy(out, c.achievements)
	return out
}

func (c *Catalog) Areas() []models.Area {
	out := make([]models.Area, len(c.areas))
	copy(out, c.areas)
	return out
}

func (c *Catalog) Get(id int) (models.Achievement, bool) {
	achievement, ok := c.byID[id]
	return achievement, ok
}

// PointsFor sums the points of the known ids in unlockedIDs. Unknown ids
// contribute nothing.
func (c *Catalog) PointsFor(unlockedIDs []int) int {
	total := 0
	for _, id := range unlockedIDs {
		if achievement, ok := c.byID[id]; ok {
			total += achievement.Points
		}
	}
	return total
}
