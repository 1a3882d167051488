package girder

// https://girder.readthedocs.io/en/latest/user-guide.html#data-organization

type Collection struct {
	ID   string `json:"_id"`
	Name string `json:"name"`

	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
	Size        int64  `json:"size"`
}

type Folder struct {
	ID   string `json:"_id"`
	Name string `json:"name"`

	ParentID   string `json:"parentId"`
	ParentType string `json:"parentCollection"`

	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
	Size        int64  `json:"size"`

	Meta map[string]any `json:"meta,omitempty"`
}

type Item struct {
	ID   string `json:"_id"`
	Name string `json:"name"`

	FolderID string `json:"folderId"`

	Description string `json:"description,omitempty"`
	Size        int64  `json:"size"`

	Meta map[string]any `json:"meta,omitempty"`

	LargeImage *LargeImage `json:"largeImage,omitempty"`
}

// IsImage reports whether the item has a tile source attached.
func (i Item) IsImage() bool {
	return i.LargeImage != nil && i.LargeImage.FileID != ""
}

type LargeImage struct {
	FileID string `json:"fileId"`
}

type File struct {
	ID   string `json:"_id"`
	Name string `json:"name"`

	ItemID   string `json:"itemId"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size"`
}

// TileInfo is the large_image tile metadata of an item.
type TileInfo struct {
	Levels int `json:"levels"`

	SizeX int `json:"sizeX"`
	SizeY int `json:"sizeY"`

	TileWidth  int `json:"tileWidth"`
	TileHeight int `json:"tileHeight"`

	Magnification *float64 `json:"magnification"`

	MillimetersX *float64 `json:"mm_x"`
	MillimetersY *float64 `json:"mm_y"`
}

// FolderNode is a folder with its descendants.
type FolderNode struct {
	Folder

	Children []FolderNode `json:"children,omitempty"`
}
