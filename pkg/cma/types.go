package cma

import (
	"time"
)

// Link types.
const (
	LinkTypeEntry       = "Entry"
	LinkTypeAsset       = "Asset"
	LinkTypeSpace       = "Space"
	LinkTypeEnvironment = "Environment"
	LinkTypeRelease     = "Release"
	LinkTypeUser        = "User"
	LinkTypeAIAction    = "AiAction"
)

// Sys holds the system properties shared by every resource.
type Sys struct {
	Type        string     `json:"type"                  yaml:"type"`
	ID          string     `json:"id"                    yaml:"id"`
	Version     int        `json:"version,omitempty"     yaml:"version,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"   yaml:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"   yaml:"updatedAt,omitempty"`
	Space       *Link      `json:"space,omitempty"       yaml:"space,omitempty"`
	Environment *Link      `json:"environment,omitempty" yaml:"environment,omitempty"`
	CreatedBy   *Link      `json:"createdBy,omitempty"   yaml:"createdBy,omitempty"`
	UpdatedBy   *Link      `json:"updatedBy,omitempty"   yaml:"updatedBy,omitempty"`
}

// Link is a reference to another resource.
type Link struct {
	Sys LinkSys `json:"sys" yaml:"sys"`
}

// LinkSys is the sys block of a Link.
type LinkSys struct {
	Type     string `json:"type"               yaml:"type"`
	LinkType string `json:"linkType,omitempty" yaml:"linkType,omitempty"`
	ID       string `json:"id"                 yaml:"id"`
}

// NewLink creates a link to a resource of the given link type.
func NewLink(linkType, id string) *Link {
	return &Link{Sys: LinkSys{Type: "Link", LinkType: linkType, ID: id}}
}

// EntityLink references an entry or asset, optionally pinned to a version.
type EntityLink struct {
	Sys EntityLinkSys `json:"sys" yaml:"sys"`
}

// EntityLinkSys is the sys block of an EntityLink.
type EntityLinkSys struct {
	Type     string `json:"type"              yaml:"type"`
	LinkType string `json:"linkType"          yaml:"linkType"`
	ID       string `json:"id"                yaml:"id"`
	Version  *int   `json:"version,omitempty" yaml:"version,omitempty"`
}

// NewEntryLink creates an unversioned link to an entry.
func NewEntryLink(id string) EntityLink {
	return EntityLink{Sys: EntityLinkSys{Type: "Link", LinkType: LinkTypeEntry, ID: id}}
}

// NewAssetLink creates an unversioned link to an asset.
func NewAssetLink(id string) EntityLink {
	return EntityLink{Sys: EntityLinkSys{Type: "Link", LinkType: LinkTypeAsset, ID: id}}
}

// WithVersion returns a copy of the link pinned to version.
func (l EntityLink) WithVersion(version int) EntityLink {
	l.Sys.Version = &version

	return l
}

// EntityCollection is the array wrapper used by bulk actions and releases.
type EntityCollection struct {
	Sys   ArraySys     `json:"sys"   yaml:"sys"`
	Items []EntityLink `json:"items" yaml:"items"`
}

// ArraySys marks a collection.
type ArraySys struct {
	Type string `json:"type" yaml:"type"`
}

// NewEntityCollection wraps links in an Array collection.
func NewEntityCollection(items ...EntityLink) EntityCollection {
	if items == nil {
		items = []EntityLink{}
	}

	return EntityCollection{Sys: ArraySys{Type: "Array"}, Items: items}
}

// Collection is a paginated list response.
type Collection[T any] struct {
	Sys   ArraySys `json:"sys"   yaml:"sys"`
	Total int      `json:"total" yaml:"total"`
	Skip  int      `json:"skip"  yaml:"skip"`
	Limit int      `json:"limit" yaml:"limit"`
	Items []T      `json:"items" yaml:"items"`
}
