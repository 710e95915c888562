package catalog

// MaxItemsPerPage bounds the number of leaf items in one page.
const MaxItemsPerPage = 2750

// PageType is the @type of pages and page items.
const PageType = "CatalogPage"

const (
	// DetailsType is the leaf @type of a published or edited package.
	DetailsType = "nuget:PackageDetails"
	// DeleteType is the leaf @type of a deleted package.
	DeleteType = "nuget:PackageDelete"
)

const xsdDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"

// IndexTypes returns the @type list of an index document.
func IndexTypes() []string {
	return []string{"CatalogRoot", "AppendOnlyCatalog", "Permalink"}
}

// Index is the root document of a catalog.
type Index struct {
	ID              string     `json:"@id"`
	Type            []string   `json:"@type"`
	CommitID        string     `json:"commitId"`
	CommitTimestamp Time       `json:"commitTimeStamp"`
	Count           int        `json:"count"`
	LastCreated     Time       `json:"nuget:lastCreated"`
	LastDeleted     Time       `json:"nuget:lastDeleted"`
	LastEdited      Time       `json:"nuget:lastEdited"`
	Items           []PageItem `json:"items"`
	Context         Context    `json:"@context"`
}

// OpenPage returns the position of the page item whose commit matches the
// index commit, searching from the newest item, or -1 when there is none.
func (x *Index) OpenPage() int {
	for i := len(x.Items) - 1; i >= 0; i-- {
		if x.Items[i].CommitID == x.CommitID {
			return i
		}
	}
	return -1
}

// PageItem summarizes a page inside the index.
type PageItem struct {
	ID              string `json:"@id"`
	Type            string `json:"@type"`
	CommitID        string `json:"commitId"`
	CommitTimestamp Time   `json:"commitTimeStamp"`
	Count           int    `json:"count"`
}

// Page is one partition of the catalog.
type Page struct {
	ID              string     `json:"@id"`
	Type            string     `json:"@type"`
	CommitID        string     `json:"commitId"`
	CommitTimestamp Time       `json:"commitTimeStamp"`
	Count           int        `json:"count"`
	Parent          string     `json:"parent"`
	Items           []LeafItem `json:"items"`
	Context         Context    `json:"@context"`
}

// Summary returns the page item describing p.
func (p *Page) Summary() PageItem {
	return PageItem{
		ID:              p.ID,
		Type:            p.Type,
		CommitID:        p.CommitID,
		CommitTimestamp: p.CommitTimestamp,
		Count:           p.Count,
	}
}

// LeafItem is one catalog entry for a single package event.
type LeafItem struct {
	ID              string `json:"@id"`
	Type            string `json:"@type"`
	CommitID        string `json:"commitId"`
	CommitTimestamp Time   `json:"commitTimeStamp"`
	PackageID       string `json:"nuget:id"`
	PackageVersion  string `json:"nuget:version"`
}

// Context is the static JSON-LD vocabulary attached to every document.
type Context struct {
	Vocab           string       `json:"@vocab"`
	NuGet           string       `json:"nuget"`
	Items           ContextList  `json:"items"`
	Parent          ContextType  `json:"parent"`
	CommitTimestamp ContextType  `json:"commitTimeStamp"`
	LastCreated     ContextType  `json:"nuget:lastCreated"`
	LastEdited      ContextType  `json:"nuget:lastEdited"`
	LastDeleted     *ContextType `json:"nuget:lastDeleted,omitempty"`
}

// ContextList declares a set-valued term.
type ContextList struct {
	ID        string `json:"@id"`
	Container string `json:"@container"`
}

// ContextType declares the type of a term.
type ContextType struct {
	Type string `json:"@type"`
}

// DefaultContext returns a fresh copy of the catalog vocabulary.
func DefaultContext() Context {
	return Context{
		Vocab:           "http://schema.nuget.org/catalog#",
		NuGet:           "http://schema.nuget.org/schema#",
		Items:           ContextList{ID: "item", Container: "@set"},
		Parent:          ContextType{Type: "@id"},
		CommitTimestamp: ContextType{Type: xsdDateTime},
		LastCreated:     ContextType{Type: xsdDateTime},
		LastEdited:      ContextType{Type: xsdDateTime},
		LastDeleted:     &ContextType{Type: xsdDateTime},
	}
}
