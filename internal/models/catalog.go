package models

// Genre is a music genre.
type Genre struct {
	ID          int    `json:"idMusicGenre,omitempty"`
	Name        string `json:"nameMusicGenre" validate:"required,max=100"`
	TotalGroups int    `json:"totalGroups,omitempty"`
}

// Group is a band or artist belonging to one genre.
type Group struct {
	ID             int     `json:"idGroup"`
	Name           string  `json:"nameGroup" validate:"required,max=100"`
	Image          *string `json:"imageGroup"`
	TotalRecords   int     `json:"totalRecords,omitempty"`
	MusicGenreID   int     `json:"musicGenreId" validate:"required,min=1"`
	MusicGenreName string  `json:"musicGenreName,omitempty"`
}

// Record is a catalog item. InCart and Amount are only set on records the
// storefront decorates with the current user's cart.
type Record struct {
	ID           int     `json:"idRecord"`
	Title        string  `json:"titleRecord" validate:"required,max=100"`
	Year         *int    `json:"yearOfPublication"`
	Price        float64 `json:"price" validate:"min=0"`
	Stock        int     `json:"stock" validate:"min=0"`
	Discontinued bool    `json:"discontinued"`
	GroupID      *int    `json:"groupId"`
	GroupName    string  `json:"groupName,omitempty"`
	NameGroup    string  `json:"nameGroup,omitempty"`
	Image        *string `json:"imageRecord"`
	InCart       bool    `json:"inCart,omitempty"`
	Amount       int     `json:"amount,omitempty"`
}

// DisplayGroup returns whichever group name field the backend filled.
func (r Record) DisplayGroup() string {
	if r.GroupName != "" {
		return r.GroupName
	}
	return r.NameGroup
}
