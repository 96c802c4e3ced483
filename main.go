package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "kartarena.db", "Path to SQLite database file")
	publicURL := flag.String("public-url", "http://localhost:8080", "Public base URL used in join QR codes")
	flag.Parse()

	db, err := OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	recorder := NewRecorder(db)
	defer recorder.Stop()

	rooms := NewRoomManager()
	rooms.SetEventSink(recorder)

	auth := NewAuth(db)

	hub := NewHub(rooms, auth, recorder)
	go hub.Run()
	go hub.RunSimulation()

	mux := SetupRoutes(hub, auth, db, *publicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Database at %s", *dbPath)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	hub.Stop()
	server.Close()
}
