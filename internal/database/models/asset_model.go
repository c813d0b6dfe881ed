package models

type AssetType string

const (
	AssetTypeServer      AssetType = "server"
	AssetTypeWorkstation AssetType = "workstation"
	AssetTypeNetwork     AssetType = "network"
	AssetTypeApplication AssetType = "application"
)

type Asset struct {
	Model
	Name string    `json:"name" gorm:"type:text;not null;"`
	Type AssetType `json:"type" gorm:"type:text;not null;"`

	IP          *string `json:"ip" gorm:"type:text;"`
	Owner       string  `json:"owner" gorm:"type:text;not null;"`
	Description string  `json:"description" gorm:"type:text"`

	// the store-level cascade is kept as a safety net - the deletion
	// service still deletes vulnerabilities explicitly, bottom up.
	Vulnerabilities []Vulnerability `json:"vulnerabilities" gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE;"`
}

func (m Asset) TableName() string {
	return "assets"
}
