package server

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"chatd/internal/chat"
	"chatd/internal/handlers"
	"chatd/internal/handlers/auth"
	"chatd/internal/handlers/room"
	"chatd/internal/handlers/user"
	"chatd/internal/middleware"
	"chatd/internal/ws"
)

type Server struct {
	Addr      string
	DB        *sql.DB
	Chat      *chat.Service
	Registry  *ws.Registry
	JWTSecret string
	JWTTTLHrs int
}

func NewServer(addr string, db *sql.DB, chatSvc *chat.Service, registry *ws.Registry, jwtSecret string, jwtTTL int) *Server {
	return &Server{
		Addr:      addr,
		DB:        db,
		Chat:      chatSvc,
		Registry:  registry,
		JWTSecret: jwtSecret,
		JWTTTLHrs: jwtTTL,
	}
}

func HandlerFunc(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

func (s *Server) Run() error {
	r := chi.NewRouter()

	// middlewares
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "chatd is running")
	})
	r.Get("/health", handlers.HealthCheck)

	// auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", HandlerFunc(&auth.SignupHandler{DB: s.DB}))
		r.Post("/login", HandlerFunc(&auth.LoginHandler{
			DB:        s.DB,
			JWTSecret: s.JWTSecret,
			JWTTTLHrs: s.JWTTTLHrs,
		}))
	})

	// authenticated routes grouped by feature
	r.Route("/user", func(r chi.Router) {
		r.Use(middleware.AuthJWT(s.JWTSecret))
		r.Get("/me", HandlerFunc(&user.MeHandler{DB: s.DB}))
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Use(middleware.AuthJWT(s.JWTSecret))
		r.Get("/", HandlerFunc(&room.RoomListHandler{DB: s.DB}))
		r.Post("/add", HandlerFunc(&room.CreateRoomHandler{DB: s.DB}))
		r.Post("/{id}/members", HandlerFunc(&room.AddMembersHandler{DB: s.DB}))
		r.Get("/{id}/check", HandlerFunc(&room.RoomCheckHandler{DB: s.DB}))
		r.Get("/{id}/messages", HandlerFunc(&room.RoomMessagesHandler{Chat: s.Chat}))
		r.Post("/{id}/send-message", HandlerFunc(&room.SendMessageHandler{Chat: s.Chat}))
		r.Post("/{id}/read", HandlerFunc(&room.ReadUpToHandler{Chat: s.Chat}))
	})

	// WebSocket endpoint (token authenticated in the handler)
	r.Get("/ws", HandlerFunc(&handlers.WSHandler{Chat: s.Chat, Registry: s.Registry}))

	fmt.Printf("Server running on %s\n", s.Addr)
	return http.ListenAndServe(s.Addr, r)
}
