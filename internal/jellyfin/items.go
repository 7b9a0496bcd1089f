package jellyfin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// pageSize is the item page size used when walking /Items.
const pageSize = 100

// GetItem returns full metadata for one item.
func (c *Client) GetItem(itemID string) (*Item, error) {
	endpoint := "/Items/" + url.PathEscape(itemID)
	if uid := c.UserID(); uid != "" {
		endpoint = "/Users/" + url.PathEscape(uid) + "/Items/" + url.PathEscape(itemID)
	}

	var item Item
	if err := c.get(endpoint, &item); err != nil {
		return nil, fmt.Errorf("getting item %s: %w", itemID, err)
	}
	return &item, nil
}

// GetItemsPage fetches one page of items matching query.
func (c *Client) GetItemsPage(query url.Values, startIndex, limit int) (*ItemsResponse, error) {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("StartIndex", strconv.Itoa(startIndex))
	q.Set("Limit", strconv.Itoa(limit))

	endpoint := "/Items?" + q.Encode()
	if uid := c.UserID(); uid != "" {
		endpoint = "/Users/" + url.PathEscape(uid) + "/Items?" + q.Encode()
	}

	var resp ItemsResponse
	if err := c.get(endpoint, &resp); err != nil {
		return nil, fmt.Errorf("getting items: %w", err)
	}
	return &resp, nil
}

// GetItems walks every page of items matching query.
func (c *Client) GetItems(query url.Values) ([]Item, error) {
	var all []Item
	for start := 0; ; start += pageSize {
		page, err := c.GetItemsPage(query, start, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		if len(page.Items) == 0 || len(all) >= page.TotalRecordCount {
			break
		}
	}
	return all, nil
}

// GetChildren returns the direct children of a parent item.
func (c *Client) GetChildren(parentID string) ([]Item, error) {
	query := url.Values{}
	query.Set("ParentId", parentID)
	return c.GetItems(query)
}

// GetUserViews returns the authenticated user's top-level library views,
// falling back to the server's media folders for API-key auth.
func (c *Client) GetUserViews() ([]Item, error) {
	endpoint := "/Library/MediaFolders"
	if uid := c.UserID(); uid != "" {
		endpoint = "/Users/" + url.PathEscape(uid) + "/Views"
	}

	var resp ItemsResponse
	if err := c.get(endpoint, &resp); err != nil {
		return nil, fmt.Errorf("getting library views: %w", err)
	}
	return resp.Items, nil
}

// SearchItems searches the library by name, optionally restricted to
// item types.
func (c *Client) SearchItems(searchTerm string, itemTypes ...string) ([]Item, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	if searchTerm != "" {
		query.Set("SearchTerm", searchTerm)
	}
	if len(itemTypes) > 0 {
		query.Set("IncludeItemTypes", strings.Join(itemTypes, ","))
	}
	return c.GetItems(query)
}

var titleFolder = cases.Fold()

// FindItemByName narrows a server-side search down to an exact,
// case-folded title match.
func (c *Client) FindItemByName(name string, itemTypes ...string) (*Item, error) {
	items, err := c.SearchItems(name, itemTypes...)
	if err != nil {
		return nil, err
	}

	want := titleFolder.String(name)
	for i := range items {
		if titleFolder.String(items[i].Name) == want {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("no item named %q", name)
}

// ArtworkURL builds the image URL for an item. imageType is usually
// Primary or Thumb.
func (c *Client) ArtworkURL(itemID, imageType string, maxWidth int) string {
	query := url.Values{}
	if maxWidth > 0 {
		query.Set("maxWidth", strconv.Itoa(maxWidth))
	}
	query.Set("quality", "90")

	return fmt.Sprintf("%s/Items/%s/Images/%s?%s",
		c.baseURL, url.PathEscape(itemID), url.PathEscape(imageType), query.Encode())
}
