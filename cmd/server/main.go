package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/StuttgartNerd/vocabularyquest/internal/config"
	"github.com/StuttgartNerd/vocabularyquest/internal/database"
	"github.com/StuttgartNerd/vocabularyquest/internal/handlers"
	"github.com/StuttgartNerd/vocabularyquest/internal/repository"
	"github.com/StuttgartNerd/vocabularyquest/internal/scheduler"
	"github.com/StuttgartNerd/vocabularyquest/internal/service"
)

func main() {
	// Load .env if present, real environment wins otherwise
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize repositories, sharing one writer lock
	var storeMu sync.Mutex
	vocabRepo := repository.NewVocabularyRepository(db, &storeMu)
	userRepo := repository.NewUserRepository(db, &storeMu)
	trackingRepo := repository.NewTrackingRepository(db, &storeMu)
	playtimeRepo := repository.NewPlaytimeRepository(db, &storeMu)
	settingsRepo := repository.NewSettingsRepository(db, &storeMu)

	// All timer callbacks and commands run on the main loop goroutine
	dispatch := make(chan func(), 64)
	sched := scheduler.NewTimerScheduler(func(fn func()) {
		dispatch <- fn
	})

	world := newConsoleHost()

	// Initialize services
	questService := service.NewQuestService(cfg, world, vocabRepo, trackingRepo, sched, nil)
	playtimeService := service.NewPlaytimeService(cfg, world, playtimeRepo, userRepo)
	importService := service.NewImportService(cfg, vocabRepo, settingsRepo)
	handler := handlers.NewCommandHandler(questService, playtimeService, importService, vocabRepo, userRepo, trackingRepo)

	// Seed bundled vocabulary into an empty store
	if err := importService.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed default vocabulary: %v", err)
	}
	importService.SeedURLsFromConfig()
	importService.ImportConfiguredOnStartup()

	questService.EnableScheduling()

	playtimeTick := sched.SchedulePeriodic(time.Minute, playtimeService.Tick)
	defer playtimeTick.Cancel()

	go readCommands(dispatch, world, handler, playtimeService)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log.Println("Server ready. Commands: join <player>, leave <player>, say <player> <command...>, admin <command...>, quit")

	for {
		select {
		case fn := <-dispatch:
			fn()
		case <-sigs:
			log.Println("Shutting down...")
			questService.Stop()
			return
		}
	}
}

// readCommands parses console input and forwards each line to the main loop.
func readCommands(dispatch chan<- func(), world *consoleHost, handler *handlers.CommandHandler, playtime *service.PlaytimeService) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			dispatch <- func() {
				// Mirror a signal-driven shutdown
				p, _ := os.FindProcess(os.Getpid())
				p.Signal(syscall.SIGTERM)
			}
			return

		case "join":
			if len(fields) != 2 {
				fmt.Println("Usage: join <player>")
				continue
			}
			player := fields[1]
			dispatch <- func() {
				world.Join(player)
				playtime.RegisterPresence(player)
			}

		case "leave":
			if len(fields) != 2 {
				fmt.Println("Usage: leave <player>")
				continue
			}
			player := fields[1]
			dispatch <- func() {
				world.Leave(player)
			}

		case "say":
			if len(fields) < 3 {
				fmt.Println("Usage: say <player> <command> [args...]")
				continue
			}
			player, name, args := fields[1], fields[2], fields[3:]
			dispatch <- func() {
				if !handler.Handle(player, name, args, false, func(message string) {
					world.MessagePlayer(player, message)
				}) {
					world.MessagePlayer(player, "Unknown command: "+name)
				}
			}

		case "admin":
			if len(fields) < 2 {
				fmt.Println("Usage: admin <command> [args...]")
				continue
			}
			name, args := fields[1], fields[2:]
			dispatch <- func() {
				if !handler.Handle("console", name, args, true, func(message string) {
					fmt.Println("[admin] " + message)
				}) {
					fmt.Println("[admin] Unknown command: " + name)
				}
			}

		default:
			fmt.Println("Unknown input. Commands: join, leave, say, admin, quit")
		}
	}
}

// consoleHost is a stdin/stdout stand-in for a real game world.
type consoleHost struct {
	mu     sync.Mutex
	online map[string]bool
}

func newConsoleHost() *consoleHost {
	return &consoleHost{online: make(map[string]bool)}
}

func (h *consoleHost) Join(username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.online[username] = true
	fmt.Printf("* %s joined\n", username)
}

func (h *consoleHost) Leave(username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.online, username)
	fmt.Printf("* %s left\n", username)
}

func (h *consoleHost) Broadcast(message string) {
	fmt.Println("[broadcast] " + message)
}

func (h *consoleHost) MessagePlayer(username, message string) {
	fmt.Printf("[to %s] %s\n", username, message)
}

func (h *consoleHost) KickPlayer(username, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.online[username] {
		return
	}
	delete(h.online, username)
	fmt.Printf("* %s was kicked: %s\n", username, reason)
}

func (h *consoleHost) GrantReward(username string) {
	fmt.Printf("* %s received a reward\n", username)
}

func (h *consoleHost) OnlinePlayers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	players := make([]string, 0, len(h.online))
	for username := range h.online {
		players = append(players, username)
	}
	sort.Strings(players)
	return players
}

func (h *consoleHost) IsOnline(username string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online[username]
}
