package models

// Achievement is one catalog entry. The catalog is static JSON shipped with
// the deployment; ids are assigned sequentially when the file omits them.
type Achievement struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Rarity      string `json:"rarity"`
	AreaID      int    `json:"areaId"`
	Icon        string `json:"icon"`
}

type Area struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
