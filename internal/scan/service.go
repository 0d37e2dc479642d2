package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/filmdeck/filmdeck/internal/http/tmdb"
	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/pkg/logger"
	"github.com/filmdeck/filmdeck/pkg/worker"
	"github.com/google/uuid"
	"github.com/rjeczalik/notify"
)

var log = logger.Get("ScanServ")

type (
	scraper interface {
		ScrapeFileForMediaInfo(path string) (*media.FileMetadata, error)
	}

	searcher interface {
		SearchForMovie(*media.FileMetadata) (*tmdb.Movie, error)
		SearchForSeries(*media.FileMetadata) (*tmdb.Series, error)
		GetMovie(movieID string) (*tmdb.Movie, error)
		GetSeries(seriesID string) (*tmdb.Series, error)
		GetEpisode(seriesID string, seasonNumber int, episodeNumber int) (*tmdb.Episode, error)
	}

	genreResolver interface {
		GenreNames(ids []int64) (string, error)
	}

	dataStore interface {
		GetAllSourcePaths() ([]string, error)
		SaveVideo(*media.Video) error
	}

	// scanService is responsible for managing the automatic detection
	// and registration of video files inside the library directories.
	// The detected files should be:
	// - Filtered to video content by extension
	// - Run through a metadata scraper to find out as much information as possible
	// - Searched for in TMDB using the information we scraped
	// - Added to the database, along with any related data
	scanService struct {
		*sync.Mutex
		scraper  scraper
		searcher searcher
		genres   genreResolver

		dataStore dataStore

		config           Config
		items            []*ScanItem
		importHoldTimers map[uuid.UUID]*time.Timer
		workerPool       *worker.WorkerPool
	}
)

// New creates a new scan service, using the provided config for
// subsequent calls to 'Run'.
//
// Each configured library path is validated to be an existing
// directory. If the directory is missing it will be created, if the
// path provided points to an existing FILE, an error is returned.
func New(config Config, searcher searcher, scraper scraper, genres genreResolver, store dataStore) (*scanService, error) {
	if len(config.LibraryPaths) == 0 {
		return nil, errors.New("no library paths configured")
	}

	for _, path := range config.LibraryPaths {
		if info, err := os.Stat(path); err == nil {
			if !info.IsDir() {
				return nil, fmt.Errorf("library path '%s' is not a directory", path)
			}
		} else if errors.Is(err, os.ErrNotExist) {
			os.MkdirAll(path, os.ModeDir|os.ModePerm)
		} else {
			return nil, fmt.Errorf("library path '%s' could not be accessed: %s", path, err.Error())
		}
	}

	service := &scanService{
		Mutex:            &sync.Mutex{},
		scraper:          scraper,
		searcher:         searcher,
		genres:           genres,
		dataStore:        store,
		config:           config,
		items:            make([]*ScanItem, 0),
		importHoldTimers: make(map[uuid.UUID]*time.Timer),
		workerPool:       worker.NewWorkerPool(),
	}

	parallelism := config.ScanParallelism
	if parallelism < 1 {
		parallelism = 1
	}
	for i := 0; i < parallelism; i++ {
		label := fmt.Sprintf("scan-worker-%d", i)
		service.workerPool.PushWorker(worker.NewWorker(label, service.PerformItemProcessing))
	}

	return service, nil
}

// Run is the main entry point of this service. It's responsible
// for listening to the OS file system and responding to change events,
// as well as regularly polling the file system irrespective of the
// watcher.
// To kill the service, the calling code should cancel the context
// provided.
func (service *scanService) Run(ctx context.Context) error {
	fsNotifyChannel := make(chan notify.EventInfo, 16)
	for _, path := range service.config.LibraryPaths {
		if err := notify.Watch(filepath.Join(path, "..."), fsNotifyChannel, notify.Create, notify.Rename); err != nil {
			return fmt.Errorf("failed to watch library path '%s': %w", path, err)
		}
	}
	defer notify.Stop(fsNotifyChannel)

	forceSyncChannel := time.NewTicker(time.Second * time.Duration(service.config.ForceSyncSeconds))
	defer forceSyncChannel.Stop()

	if err := service.workerPool.Start(); err != nil {
		return err
	}
	defer service.workerPool.Close()
	defer service.clearAllImportHoldTimers()

	service.DiscoverNewFiles()

	for {
		select {
		case <-fsNotifyChannel:
			service.DiscoverNewFiles()
		case <-forceSyncChannel.C:
			service.DiscoverNewFiles()
		case <-ctx.Done():
			return nil
		}
	}
}

// PerformItemProcessing is the worker function for the scan service,
// which is called by the services WorkerPool.
// This function will claim the first IDLE item it finds and attempt to
// process it. If the processing fails with a Trouble, then it will be
// set on the item and it's state set to TROUBLED.
func (service *scanService) PerformItemProcessing(w worker.Worker) (bool, error) {
	item := service.claimIdleItem()
	if item == nil {
		return false, nil
	}

	if err := item.process(service.scraper, service.searcher, service.genres, service.dataStore); err != nil {
		var trouble Trouble
		if errors.As(err, &trouble) {
			service.Lock()
			item.Trouble = &trouble
			item.State = TROUBLED
			service.Unlock()
		} else {
			return false, err
		}
	} else {
		service.Lock()
		item.State = COMPLETE
		service.Unlock()
	}

	return true, nil
}

// DiscoverNewFiles will scan the host file system at the configured
// library paths and check for video files that need to be registered
// (as in no database row for these items already exist, and no current
// item in this service represents this path).
//
// Note: This function will take ownership of the mutex, and releases it when returning
func (service *scanService) DiscoverNewFiles() {
	service.Lock()
	defer service.Unlock()

	sourcePaths, err := service.dataStore.GetAllSourcePaths()
	if err != nil {
		log.Errorf("failed to fetch known source paths: %s\n", err.Error())
		return
	}

	sourcePathsLookup := make(map[string]bool, len(sourcePaths))
	for _, path := range sourcePaths {
		sourcePathsLookup[path] = true
	}
	for _, item := range service.items {
		sourcePathsLookup[item.Path] = true
	}

	videoExtensions := service.config.videoExtensions()
	newItems := make(map[string]fs.FileInfo)
	for _, libraryPath := range service.config.LibraryPaths {
		found, err := recursivelyWalkFileSystem(libraryPath, sourcePathsLookup, videoExtensions)
		if err != nil {
			log.Errorf("file system polling of '%s' failed: %s\n", libraryPath, err.Error())
			continue
		}

		for path, info := range found {
			newItems[path] = info
		}
	}

	minModtimeAge := service.config.RequiredModTimeAgeDuration()
	dirty := false
	for itemPath, itemInfo := range newItems {
		itemID := uuid.New()
		timeDiff := time.Since(itemInfo.ModTime())

		itemState := IMPORT_HOLD
		if timeDiff > minModtimeAge {
			dirty = true
			itemState = IDLE
		}

		scanItem := &ScanItem{
			ID:    itemID,
			Path:  itemPath,
			State: itemState,
		}

		service.items = append(service.items, scanItem)
		if itemState == IMPORT_HOLD {
			service.scheduleImportHoldTimer(itemID, minModtimeAge-timeDiff)
		}
	}

	if dirty {
		service.wakeupWorkerPool()
	}
}

// RemoveItem looks for an item with the ID provided in the services
// state, and removes it if it's found.
// This method *fails* if the item is currently 'PROCESSING' as
// interrupting the processing is not possible.
// This method does not error if the itemID does not exist.
//
// Note: This function takes ownership of the mutex and releases it on return
func (service *scanService) RemoveItem(itemID uuid.UUID) error {
	service.Lock()
	defer service.Unlock()

	return service.removeItemLocked(itemID)
}

func (service *scanService) removeItemLocked(itemID uuid.UUID) error {
	for k, v := range service.items {
		if v.ID == itemID {
			if v.State == PROCESSING {
				return fmt.Errorf("cannot remove item %v as a worker is currently processing it", itemID)
			}

			service.clearImportHoldTimer(itemID)
			service.items = append(service.items[:k], service.items[k+1:]...)
			return nil
		}
	}

	return nil
}

// GetItem accepts the ID of a scan item and attempts to find it in the
// services queue. If it cannot be found, nil is returned.
func (service *scanService) GetItem(itemID uuid.UUID) *ScanItem {
	service.Lock()
	defer service.Unlock()

	return service.getItemLocked(itemID)
}

func (service *scanService) getItemLocked(itemID uuid.UUID) *ScanItem {
	for _, item := range service.items {
		if item.ID == itemID {
			return item
		}
	}

	return nil
}

// GetAllItems returns the scan items currently being tracked by this
// service.
func (service *scanService) GetAllItems() []*ScanItem {
	service.Lock()
	defer service.Unlock()

	items := make([]*ScanItem, len(service.items))
	copy(items, service.items)
	return items
}

// ResolveTroubledItem applies a trouble resolution to the item with the
// given ID. Retry and TMDB override resolutions re-queue the item;
// abort removes it from the service.
func (service *scanService) ResolveTroubledItem(itemID uuid.UUID, method ResolutionType, context map[string]string) error {
	service.Lock()
	defer service.Unlock()

	item := service.getItemLocked(itemID)
	if item == nil {
		return ErrScanItemNotFound
	}
	if item.State != TROUBLED || item.Trouble == nil {
		return ErrNoTrouble
	}

	resolution, err := item.Trouble.GenerateResolution(method, context)
	if err != nil {
		return err
	}

	switch res := resolution.(type) {
	case *AbortResolution:
		return service.removeItemLocked(itemID)
	case *RetryResolution:
		item.Trouble = nil
		item.State = IDLE
	case *TmdbIDResolution:
		item.Trouble = nil
		item.OverrideTmdbID = &res.tmdbID
		item.State = IDLE
	}

	service.wakeupWorkerPool()
	return nil
}

// evaluateItemHold accepts the ID of an item that is on IMPORT_HOLD,
// and checks it's modtime to see if the item can be moved on to
// the 'IDLE' state.
// If the item with the ID provided no longer exists, the method is a NO-OP.
// If the item exists, but it's source file no longer exists, the item is removed
// from the services state.
// If the item exists and it's source still does not meet modtime requirements,
// then a new timer will be scheduled to re-evaluate the item hold.
//
// Note: this function takes ownership of the mutex, and releases it when returning
func (service *scanService) evaluateItemHold(id uuid.UUID) {
	service.Lock()
	defer service.Unlock()

	item := service.getItemLocked(id)
	if item == nil || item.State != IMPORT_HOLD {
		return
	}

	timeDiff, err := item.modtimeDiff()
	if err != nil {
		// Item's source file has gone away!
		service.removeItemLocked(id)
		return
	}

	thresholdModTime := service.config.RequiredModTimeAgeDuration()
	if *timeDiff < thresholdModTime {
		service.scheduleImportHoldTimer(id, thresholdModTime-*timeDiff)
		return
	}

	item.State = IDLE
	service.wakeupWorkerPool()
}

// scheduleImportHoldTimer will call evaluateItemHold for the item provided
// after the delay duration specified has elapsed. Any existing import hold timer
// for the item specified will be *cancelled* before the new timer is created.
func (service *scanService) scheduleImportHoldTimer(id uuid.UUID, delay time.Duration) {
	service.clearImportHoldTimer(id)
	service.importHoldTimers[id] = time.AfterFunc(delay, func() {
		service.evaluateItemHold(id)
	})
}

// clearImportHoldTimer cancels and deletes the import hold timer associatted
// with the item ID specified.
func (service *scanService) clearImportHoldTimer(id uuid.UUID) {
	if timer, ok := service.importHoldTimers[id]; ok {
		timer.Stop()
		delete(service.importHoldTimers, id)
	}
}

// clearAllImportHoldTimers cancels and deletes the import hold timers for
// all items.
func (service *scanService) clearAllImportHoldTimers() {
	service.Lock()
	defer service.Unlock()

	for key, timer := range service.importHoldTimers {
		timer.Stop()
		delete(service.importHoldTimers, key)
	}
}

// claimIdleItem will try and find an IDLE item in the scan service,
// and set it's state to 'PROCESSING' to prevent another
// worker from claiming it once the mutex lock is released.
//
// Note: This function takes ownership of the mutex, and releases it when returning
func (service *scanService) claimIdleItem() *ScanItem {
	service.Lock()
	defer service.Unlock()

	for _, item := range service.items {
		if item.State == IDLE {
			item.State = PROCESSING
			return item
		}
	}

	return nil
}

func (service *scanService) wakeupWorkerPool() {
	service.workerPool.WakeupWorkers()
}

// recursivelyWalkFileSystem will walk the file system, starting at the directory provided,
// and construct a map of all the video files inside (including any inside of nested
// directories). Files whose paths are included in the 'known' map, or whose extension
// is not a recognised video extension, will NOT be included in the result.
// The key of the returned map is the path, and the value contains the FileInfo
func recursivelyWalkFileSystem(rootDirPath string, known map[string]bool, videoExtensions map[string]bool) (map[string]fs.FileInfo, error) {
	foundItems := make(map[string]fs.FileInfo, 0)
	err := filepath.WalkDir(rootDirPath, func(path string, dir fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if dir.IsDir() {
			return nil
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if !videoExtensions[ext] {
			return nil
		}

		if _, ok := known[path]; !ok {
			fileInfo, err := dir.Info()
			if err != nil {
				return err
			}

			foundItems[path] = fileInfo
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk file system: %s", err.Error())
	}

	return foundItems, nil
}
