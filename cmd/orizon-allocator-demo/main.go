// Command orizon-allocator-demo watches a region-layout file and
// re-initializes an allocator whenever it changes, printing the resulting
// Stats. It exists to exercise the facade end-to-end against real mapped
// memory rather than as a production tool.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	orizonalloc "github.com/orizon-lang/orizon-allocator"
	"github.com/orizon-lang/orizon-allocator/internal/hostmem"
)

// layout describes how much memory to map and how to carve it into pages,
// read from the watched JSON file.
type layout struct {
	RegionBytes uintptr `json:"regionBytes"`
	PageSize    uintptr `json:"pageSize"`
}

func main() {
	path := flag.String("layout", "layout.json", "path to a JSON region-layout file to watch")
	flag.Parse()

	printer := message.NewPrinter(language.English)

	apply := func() {
		l, err := readLayout(*path)
		if err != nil {
			log.Printf("orizon-allocator-demo: %v", err)

			return
		}

		region, err := hostmem.Map(l.RegionBytes)
		if err != nil {
			log.Printf("orizon-allocator-demo: %v", err)

			return
		}

		if !orizonalloc.Init([]orizonalloc.Region{region.Region}, l.PageSize) {
			log.Printf("orizon-allocator-demo: init failed for layout %+v", l)

			return
		}

		s := orizonalloc.GetStats()
		printer.Printf(
			"total=%d reserved=%d user=%d allocated=%d free=%d\n",
			s.TotalMemorySize, s.ReservedMemorySize, s.UserMemorySize, s.AllocatedMemorySize, s.FreeMemorySize,
		)
	}

	apply()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("orizon-allocator-demo: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(*path); err != nil {
		log.Fatalf("orizon-allocator-demo: watch %s: %v", *path, err)
	}

	for event := range watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
			apply()
		}
	}
}

func readLayout(path string) (layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return layout{}, err
	}

	var l layout
	if err := json.Unmarshal(data, &l); err != nil {
		return layout{}, err
	}

	return l, nil
}
