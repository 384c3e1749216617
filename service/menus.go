package service

import "github.com/foomo/contentgraph-site/service/vo"

const DefaultMenuLocation = "DEFAULT_NAVIGATION"

// MenuLocation returns the configured location or the default one.
func MenuLocation(configured string) string {
	if configured == "" {
		return DefaultMenuLocation
	}
	return configured
}

// ResolveMenu returns the items of the menu declared for location. ok is false
// when no menu declares it, which callers render as nothing at all.
func ResolveMenu(menus vo.Menus, location string) (items []vo.MenuItem, ok bool) {
	items, ok = menus[location]
	return items, ok
}

type flatMenuItem struct {
	item     vo.MenuItem
	parentID string
}

// BuildMenus keys every menu by each location it declares and rebuilds the
// flat item list into trees. A location declared twice keeps the first menu.
func BuildMenus(raw []vo.RawNode) vo.Menus {
	menus := vo.Menus{}
	for _, menu := range raw {
		items := menuTree(flatMenuItems(menu["menuItems"]))
		for _, location := range asSlice(menu["locations"]) {
			key := str(location)
			if key == "" {
				continue
			}
			if _, exists := menus[key]; !exists {
				menus[key] = items
			}
		}
	}
	return menus
}

func flatMenuItems(v any) []flatMenuItem {
	var nodes []any
	if m, ok := asMap(v); ok {
		nodes = asSlice(m["edges"])
		if nodes == nil {
			nodes = asSlice(m["nodes"])
		}
	} else {
		nodes = asSlice(v)
	}
	items := make([]flatMenuItem, 0, len(nodes))
	for _, n := range nodes {
		node, ok := unwrap(n)
		if !ok {
			continue
		}
		url := str(node["path"])
		if url == "" {
			url = str(node["url"])
		}
		label := str(node["label"])
		if label == "" {
			label = str(node["title"])
		}
		items = append(items, flatMenuItem{
			item: vo.MenuItem{
				ID:    str(node["id"]),
				Label: label,
				URL:   url,
			},
			parentID: str(node["parentId"]),
		})
	}
	return items
}

// menuTree attaches items to their parents in list order. Items whose parent
// is unknown become roots.
func menuTree(flat []flatMenuItem) []vo.MenuItem {
	known := make(map[string]bool, len(flat))
	for _, f := range flat {
		known[f.item.ID] = true
	}
	children := map[string][]flatMenuItem{}
	var roots []flatMenuItem
	for _, f := range flat {
		if f.parentID == "" || !known[f.parentID] || f.parentID == f.item.ID {
			roots = append(roots, f)
			continue
		}
		children[f.parentID] = append(children[f.parentID], f)
	}

	visited := map[string]bool{}
	var build func(f flatMenuItem) vo.MenuItem
	build = func(f flatMenuItem) vo.MenuItem {
		item := f.item
		visited[item.ID] = true
		for _, child := range children[item.ID] {
			if visited[child.item.ID] {
				continue
			}
			item.Children = append(item.Children, build(child))
		}
		return item
	}

	items := make([]vo.MenuItem, 0, len(roots))
	for _, root := range roots {
		items = append(items, build(root))
	}
	return items
}
