package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/avellar/chat-service/internal/adapters/http"
	"github.com/avellar/chat-service/internal/adapters/llm"
	firestorestore "github.com/avellar/chat-service/internal/adapters/storage/firestore"
	"github.com/avellar/chat-service/internal/adapters/storage/gormstore"
	memstore "github.com/avellar/chat-service/internal/adapters/storage/memory"
	"github.com/avellar/chat-service/internal/app/auth"
	"github.com/avellar/chat-service/internal/app/chat"
	"github.com/avellar/chat-service/internal/config"
	"github.com/avellar/chat-service/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET is not set; authenticated endpoints will fail")
	}

	// Providers: mock everything locally, real registry otherwise.
	var providers llm.Registry
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK provider for all models")
		providers = llm.NewMockRegistry(llm.NewMockProvider())
	} else {
		var err error
		providers, err = llm.NewRegistry(ctx, cfg)
		if err != nil {
			log.Fatalf("error initializing provider registry: %v", err)
		}
	}

	// Storage: SQLite, Firestore or memory.
	var userStore domain.UserStore
	var convStore domain.ConversationStore

	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("GCP_PROJECT is required for the Firestore storage backend")
		}

		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		userStore = fsStore
		convStore = fsStore

	case "memory":
		log.Println("[STORE] Using in-memory storage")
		mem := memstore.NewStore()
		userStore = mem
		convStore = mem

	default:
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		store, err := gormstore.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error opening SQLite store: %v", err)
		}
		userStore = store
		convStore = store
	}

	authSvc := auth.NewService(userStore, cfg.JWTSecret)
	chatSvc := chat.NewService(providers, convStore, memstore.NewGuestStore())

	handler := httpadapter.NewServer(authSvc, chatSvc, convStore, cfg)

	addr := ":" + cfg.Port
	log.Println("chat API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
