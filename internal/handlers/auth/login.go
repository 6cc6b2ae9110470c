package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"chatd/internal/utils"
)

type LoginHandler struct {
	DB        *sql.DB
	JWTSecret string
	JWTTTLHrs int
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ServeHTTP handles POST /auth/login
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	// 1. Find user
	var id int64
	var name, passwordHash string
	err := h.DB.QueryRow("SELECT id, name, password_hash FROM users WHERE email=?", req.Email).Scan(&id, &name, &passwordHash)
	if err == sql.ErrNoRows {
		utils.JSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	} else if err != nil {
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	// 2. Verify password
	if !utils.CheckPassword(req.Password, passwordHash) {
		utils.JSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}

	// 3. Generate JWT
	token, err := utils.GenerateJWT(id, h.JWTSecret, h.JWTTTLHrs)
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	// record a verification token alongside the session (see migrations/005)
	verifyToken, err := utils.RandomTokenHex(32)
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}
	_, err = h.DB.Exec("INSERT INTO user_tokens (user_id, token, token_type, expires_at) VALUES (?, ?, 'verify', ?)", id, verifyToken, time.Now().Add(time.Duration(h.JWTTTLHrs)*time.Hour))
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to save token",
			Data: map[string]interface{}{
				"error": err.Error(),
			},
		})
		return
	}


	// 4. Return response
	resp := LoginResponse{
		Token: token,
		Email: req.Email,
		Name:  name,
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data:    resp,
	})
}
