package models

// StoreSettings is persisted under the "config" key.
type StoreSettings struct {
	StoreName string `json:"storeName"`
	Logo      string `json:"logo"`
	Theme     string `json:"theme"` // #rrggbb
}
