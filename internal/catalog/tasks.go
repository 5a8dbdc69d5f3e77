package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// ErrTooMany is returned when a request asks for more images than the
// catalog holds.
var ErrTooMany = errors.New("not enough scanned images")

// Tasks is the set of catalog IDs a run will process. Every change is
// recorded as a human-readable message so the CLI can echo what happened.
type Tasks struct {
	size     int
	ids      []int
	messages []string
}

// NewTasks returns an empty task list over a catalog of size images.
func NewTasks(size int) *Tasks {
	return &Tasks{size: size}
}

func (t *Tasks) has(id int) bool {
	for _, v := range t.ids {
		if v == id {
			return true
		}
	}
	return false
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (t *Tasks) add(ids []int) {
	var added []int
	for _, id := range ids {
		switch {
		case t.has(id):
			t.messages = append(t.messages, fmt.Sprintf("[x] Image with ID [%d] is already on the task list", id))
		case id < 0 || id >= t.size:
			t.messages = append(t.messages, fmt.Sprintf("[x] Image with ID [%d] does not exist", id))
		default:
			t.ids = append(t.ids, id)
			added = append(added, id)
		}
	}
	if len(added) > 0 {
		t.messages = append(t.messages, fmt.Sprintf("[+] Added image with ID %s to the task list", formatIDs(added)))
	}
}

// AddAll replaces the list with every image in the catalog.
func (t *Tasks) AddAll() {
	t.ids = t.ids[:0]
	for i := 0; i < t.size; i++ {
		t.ids = append(t.ids, i)
	}
	t.messages = append(t.messages, "[+] Added all scanned images to task list")
}

// AddIDs adds the given IDs. Unknown and duplicate IDs are reported in the
// messages and otherwise ignored.
func (t *Tasks) AddIDs(ids ...int) {
	t.add(ids)
}

// AddNewest adds the n most recently modified images.
func (t *Tasks) AddNewest(n int) error {
	if n > t.size {
		return fmt.Errorf("%w: cannot add more than %d newest images", ErrTooMany, t.size)
	}
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, t.size-1-i)
	}
	t.add(ids)
	return nil
}

// AddOldest adds the n least recently modified images.
func (t *Tasks) AddOldest(n int) error {
	if n > t.size {
		return fmt.Errorf("%w: cannot add more than %d oldest images", ErrTooMany, t.size)
	}
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, i)
	}
	t.add(ids)
	return nil
}

// AddRandom adds n distinct images picked with rng.
func (t *Tasks) AddRandom(n int, rng *rand.Rand) error {
	if n > t.size {
		return fmt.Errorf("%w: cannot add more than %d random images", ErrTooMany, t.size)
	}
	t.add(rng.Perm(t.size)[:n])
	return nil
}

// RemoveIDs drops the given IDs from the list.
func (t *Tasks) RemoveIDs(ids ...int) {
	var removed []int
	for _, id := range ids {
		idx := -1
		for i, v := range t.ids {
			if v == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.messages = append(t.messages, fmt.Sprintf("[x] Image with ID [%d] is not on the task list", id))
			continue
		}
		t.ids = append(t.ids[:idx], t.ids[idx+1:]...)
		removed = append(removed, id)
	}
	if len(removed) > 0 {
		t.messages = append(t.messages, fmt.Sprintf("[-] Removed image with ID %s from the task list", formatIDs(removed)))
	}
}

// IDs returns the task IDs in ascending order.
func (t *Tasks) IDs() []int {
	out := make([]int, len(t.ids))
	copy(out, t.ids)
	sort.Ints(out)
	return out
}

// Len returns the number of tasks.
func (t *Tasks) Len() int { return len(t.ids) }

// Messages returns every message recorded so far, oldest first.
func (t *Tasks) Messages() []string {
	out := make([]string, len(t.messages))
	copy(out, t.messages)
	return out
}

// Select returns the catalog entries for the task IDs, in ID order.
func (t *Tasks) Select(images []ScannedImage) []ScannedImage {
	out := make([]ScannedImage, 0, len(t.ids))
	for _, id := range t.IDs() {
		if id >= 0 && id < len(images) {
			out = append(out, images[id])
		}
	}
	return out
}
