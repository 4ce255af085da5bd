package gui

import (
	"fyne.io/fyne/v2"
)

var iconData = []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 256 256">
<rect x="16" y="40" width="224" height="176" rx="24" fill="#2d6a4f"/>
<polygon points="104,88 104,168 168,128" fill="#f1faee"/>
<rect x="48" y="184" width="160" height="12" rx="6" fill="#95d5b2"/>
</svg>`)

// GetAppIcon returns the application icon as a Fyne resource
func GetAppIcon() fyne.Resource {
	return &fyne.StaticResource{
		StaticName:    "cliprecall.svg",
		StaticContent: iconData,
	}
}
