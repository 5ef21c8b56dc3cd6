package index

import "sort"

// ChangeSet compares PDFs on disk with indexed paths.
type ChangeSet struct {
	HasChanges   bool     `json:"has_changes"`
	NewCount     int      `json:"new_files"`
	DeletedCount int      `json:"deleted_files"`
	New          []string `json:"new,omitempty"`
	Deleted      []string `json:"deleted,omitempty"`
}

// DetectChanges returns the paths on disk but not indexed and the paths
// indexed but no longer on disk. It is a pure set comparison.
func DetectChanges(disk, indexed map[string]struct{}) ChangeSet {
	var cs ChangeSet
	for p := range disk {
		if _, ok := indexed[p]; !ok {
			cs.New = append(cs.New, p)
		}
	}
	for p := range indexed {
		if _, ok := disk[p]; !ok {
			cs.Deleted = append(cs.Deleted, p)
		}
	}
	sort.Strings(cs.New)
	sort.Strings(cs.Deleted)

	cs.NewCount = len(cs.New)
	cs.DeletedCount = len(cs.Deleted)
	cs.HasChanges = cs.NewCount > 0 || cs.DeletedCount > 0
	return cs
}
