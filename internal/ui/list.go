package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spt/internal/services"
)

var (
	_ list.Item = deviceItem{}
)

// deviceItem wraps [services.Device] to implement [list.Item].
type deviceItem struct {
	device   services.Device
	selected bool
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	if i.selected {
		return "● " + i.device.Name
	}
	return i.device.Name
}
func (i deviceItem) Description() string {
	desc := i.device.Type
	if i.device.IsActive {
		desc = fmt.Sprintf("%s • active", desc)
	}
	if i.device.IsRestricted {
		desc = fmt.Sprintf("%s • restricted", desc)
	}
	return desc
}
