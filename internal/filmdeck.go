package internal

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/filmdeck/filmdeck/internal/api"
	"github.com/filmdeck/filmdeck/internal/database"
	"github.com/filmdeck/filmdeck/internal/http/tmdb"
	"github.com/filmdeck/filmdeck/internal/matroska"
	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/internal/player"
	"github.com/filmdeck/filmdeck/internal/scan"
	"github.com/filmdeck/filmdeck/internal/subtitle"
	"github.com/filmdeck/filmdeck/pkg/logger"
	"github.com/google/uuid"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	ScanService interface {
		RunnableService
		GetAllItems() []*scan.ScanItem
		GetItem(uuid.UUID) *scan.ScanItem
		RemoveItem(uuid.UUID) error
		DiscoverNewFiles()
		ResolveTroubledItem(itemID uuid.UUID, method scan.ResolutionType, context map[string]string) error
	}
)

// FilmDeck represents the top-level object for the server, and is
// responsible for initialising the stores, services and API gateway.
type filmDeckImpl struct {
	config FilmDeckConfig

	db        database.Manager
	dataStore *DataStore

	settingsStore *player.SettingsStore

	restGateway RunnableService
	scanService ScanService
}

func New(config FilmDeckConfig) *filmDeckImpl {
	log.Emit(logger.DEBUG, "Bootstrapping FilmDeck services using config: %#v\n", config)

	db := database.New()
	deck := &filmDeckImpl{
		config:        config,
		db:            db,
		dataStore:     &DataStore{db: db, videos: media.NewStore()},
		settingsStore: player.NewSettingsStore(config.Player.SettingsPath),
	}

	searcher := tmdb.NewSearcher(config.Tmdb)
	genres := tmdb.NewGenreCache(searcher)
	if serv, err := scan.New(config.Scan, searcher, &media.MetadataScraper{}, genres, deck.dataStore); err == nil {
		deck.scanService = serv
	} else {
		panic(fmt.Sprintf("failed to construct scan service due to error: %s", err.Error()))
	}

	deck.restGateway = api.NewRestGateway(
		&api.RestConfig{HostAddr: net.JoinHostPort(config.ApiHostAddr, config.ApiHostPort)},
		deck.dataStore,
		player.NewLauncher(deck.settingsStore),
		&subtitle.Finder{},
		deck.scanService,
		deck.settingsStore,
	)

	return deck
}

// Run will start FilmDeck by connecting to the database, applying any
// outstanding migrations, and bringing up the services.
//
// This function will not return until FilmDeck is stopped.
// To stop FilmDeck, the provided context must be cancelled. Errors from
// which FilmDeck cannot recover will also cause it to stop.
func (deck *filmDeckImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	log.Emit(logger.NEW, "Connecting to database...\n")
	if err := deck.db.Connect(deck.config.Database); err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	deck.spawnAsyncService(ctx, wg, deck.scanService, "scan-service", crashHandler)
	deck.spawnAsyncService(ctx, wg, deck.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "FilmDeck services spawned!\n")

	wg.Wait()
	return nil
}

// spawnAsyncService will run the provided function/service as it's own
// go-routine, ensuring that the service waitgroup is updated correctly
func (deck *filmDeckImpl) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}

// DataStore binds the video store to the database connection, giving
// the API controllers and the scan service a handle free of any
// transaction plumbing.
type DataStore struct {
	db     database.Manager
	videos *media.Store
}

func (store *DataStore) ListVideos() ([]*media.Video, error) {
	return store.videos.List(store.db.GetSqlxDb())
}

func (store *DataStore) GetVideo(id string) (*media.Video, error) {
	return store.videos.GetWithID(store.db.GetSqlxDb(), id)
}

func (store *DataStore) UpdateVideo(id string, update media.VideoUpdate) (*media.Video, error) {
	return store.videos.UpdateDetails(store.db.GetSqlxDb(), id, update)
}

func (store *DataStore) DeleteVideo(id string) error {
	return store.videos.Delete(store.db.GetSqlxDb(), id)
}

func (store *DataStore) RecordPlayback(id string) error {
	return store.videos.RecordPlayback(store.db.GetSqlxDb(), id)
}

func (store *DataStore) SaveVideo(video *media.Video) error {
	return store.videos.Save(store.db.GetSqlxDb(), video)
}

func (store *DataStore) GetAllSourcePaths() ([]string, error) {
	return store.videos.AllPaths(store.db.GetSqlxDb())
}

// ProbeRuntime reads the container duration straight from the file,
// bypassing the stored runtime.
func (store *DataStore) ProbeRuntime(path string) (string, error) {
	meta, err := matroska.Extract(path)
	if err != nil {
		return "", err
	}

	return media.FormatRuntime(meta.DurationSeconds), nil
}
