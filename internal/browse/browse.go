// Package browse builds a browsable media tree from a Jellyfin library
// in the shape home-automation media browsers expect: typed nodes with
// a playable flag and an expandable flag.
package browse

import (
	"errors"
	"fmt"

	"github.com/hautomata/jellybridge/internal/jellyfin"
)

// Media content types and classes as the host platform names them.
const (
	TypeLibrary   = "library"
	TypeDirectory = "directory"
	TypeMovie     = "movie"
	TypeTVShow    = "tvshow"
	TypeSeason    = "season"
	TypeEpisode   = "episode"
	TypeAlbum     = "album"
	TypeArtist    = "artist"
	TypeTrack     = "track"
	TypePlaylist  = "playlist"
	TypeChannel   = "channel"
)

// ErrUnknownMediaType marks Jellyfin item types the tree cannot map.
var ErrUnknownMediaType = errors.New("unknown media type")

// ErrNotFound is returned when the requested content id does not exist.
var ErrNotFound = errors.New("media content not found")

// Node is one entry in the media tree.
type Node struct {
	MediaClass  string  `json:"media_class"`
	ContentID   string  `json:"media_content_id"`
	ContentType string  `json:"media_content_type"`
	Title       string  `json:"title"`
	CanPlay     bool    `json:"can_play"`
	CanExpand   bool    `json:"can_expand"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Children    []*Node `json:"children,omitempty"`
}

// Library is the slice of the Jellyfin client the tree builder needs.
type Library interface {
	GetItem(itemID string) (*jellyfin.Item, error)
	GetChildren(parentID string) ([]jellyfin.Item, error)
	GetUserViews() ([]jellyfin.Item, error)
	ArtworkURL(itemID, imageType string, maxWidth int) string
}

// itemTypeInfo maps a Jellyfin item type onto the host model.
type itemTypeInfo struct {
	mediaType string
	class     string
	playable  bool
}

var itemTypes = map[string]itemTypeInfo{
	"Movie":            {TypeMovie, TypeMovie, true},
	"Series":           {TypeTVShow, TypeTVShow, true},
	"Season":           {TypeSeason, TypeSeason, true},
	"Episode":          {TypeEpisode, TypeEpisode, true},
	"Music":            {TypeAlbum, TypeDirectory, false},
	"BoxSet":           {TypeDirectory, TypeDirectory, true},
	"Folder":           {TypeDirectory, TypeDirectory, false},
	"CollectionFolder": {TypeDirectory, TypeDirectory, false},
	"Playlist":         {TypeDirectory, TypeDirectory, true},
	"MusicArtist":      {TypeArtist, TypeArtist, true},
	"MusicAlbum":       {TypeAlbum, TypeAlbum, true},
	"Audio":            {TypeTrack, TypeTrack, true},
}

func classify(itemType string) (itemTypeInfo, error) {
	info, ok := itemTypes[itemType]
	if !ok {
		return itemTypeInfo{}, fmt.Errorf("%w: %q", ErrUnknownMediaType, itemType)
	}
	return info, nil
}

// expandable content types list children by ParentId.
var expandable = map[string]bool{
	TypeDirectory: true,
	TypeArtist:    true,
	TypeAlbum:     true,
	TypePlaylist:  true,
	TypeTVShow:    true,
	TypeSeason:    true,
}

// Browse resolves one level of the media tree. An empty contentType or
// TypeLibrary returns the root listing of library views; expandable
// types list their children; leaf types resolve to a single playable
// node.
func Browse(lib Library, contentType, contentID string) (*Node, error) {
	switch {
	case contentType == "" || contentType == TypeLibrary:
		return browseRoot(lib)
	case expandable[contentType]:
		return browseContainer(lib, contentType, contentID)
	default:
		return browseLeaf(lib, contentType, contentID)
	}
}

func browseRoot(lib Library) (*Node, error) {
	root := &Node{
		MediaClass:  TypeDirectory,
		ContentID:   TypeLibrary,
		ContentType: TypeLibrary,
		Title:       "Media Library",
		CanExpand:   true,
		Children:    []*Node{},
	}

	views, err := lib.GetUserViews()
	if err != nil {
		return nil, fmt.Errorf("browsing library root: %w", err)
	}
	for i := range views {
		child, err := itemNode(lib, &views[i])
		if err != nil {
			// Views of unmapped collection types are skipped, not fatal.
			if errors.Is(err, ErrUnknownMediaType) {
				continue
			}
			return nil, err
		}
		root.Children = append(root.Children, child)
	}

	return root, nil
}

func browseContainer(lib Library, contentType, contentID string) (*Node, error) {
	parent, err := lib.GetItem(contentID)
	if err != nil {
		return nil, fmt.Errorf("browsing %s %s: %w", contentType, contentID, err)
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contentID)
	}

	info, err := classify(parent.Type)
	if err != nil {
		return nil, err
	}

	node := &Node{
		MediaClass:  contentType,
		ContentID:   contentID,
		ContentType: contentType,
		Title:       parent.Name,
		CanPlay:     info.playable,
		CanExpand:   true,
		Thumbnail:   lib.ArtworkURL(contentID, "Primary", 500),
		Children:    []*Node{},
	}

	children, err := lib.GetChildren(contentID)
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", contentID, err)
	}
	for i := range children {
		child, err := itemNode(lib, &children[i])
		if err != nil {
			if errors.Is(err, ErrUnknownMediaType) {
				continue
			}
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

func browseLeaf(lib Library, contentType, contentID string) (*Node, error) {
	item, err := lib.GetItem(contentID)
	if err != nil {
		return nil, fmt.Errorf("resolving %s %s: %w", contentType, contentID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contentID)
	}

	info, err := classify(item.Type)
	if err != nil {
		return nil, err
	}

	return &Node{
		MediaClass:  info.class,
		ContentID:   item.ID,
		ContentType: info.mediaType,
		Title:       item.Name,
		CanPlay:     info.playable,
		CanExpand:   false,
		Thumbnail:   lib.ArtworkURL(item.ID, "Primary", 500),
		Children:    []*Node{},
	}, nil
}

// itemNode renders one child item. Folders stay expandable.
func itemNode(lib Library, item *jellyfin.Item) (*Node, error) {
	info, err := classify(item.Type)
	if err != nil {
		return nil, err
	}

	return &Node{
		MediaClass:  info.class,
		ContentID:   item.ID,
		ContentType: info.mediaType,
		Title:       item.Name,
		CanPlay:     info.playable,
		CanExpand:   item.IsFolder,
		Thumbnail:   lib.ArtworkURL(item.ID, "Primary", 500),
		Children:    []*Node{},
	}, nil
}
