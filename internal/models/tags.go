package models

type Tag struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description,omitempty"`
	BackgroundColor string `json:"background_color" validate:"required,hexadecimal,len=6"`
	ForegroundColor string `json:"foreground_color" validate:"required,hexadecimal,len=6"`
}

type Tags map[string]Tag

type TagDeletePayload struct {
	Name string `json:"name" validate:"required"`
}
