package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"corebank/internal/common"
	"corebank/internal/server/services"
)

func (s *Server) registerRoutes(r *gin.RouterGroup) {
	r.POST("/auth/register", s.handleRegister)
	r.POST("/auth/login", s.handleLogin)

	authed := r.Group("")
	authed.Use(Auth(s.users))

	authed.POST("/auth/logout", s.handleLogout)
	authed.POST("/user/password", s.handleChangePassword)

	authed.POST("/accounts", s.handleCreateAccount)
	authed.GET("/accounts", s.handleListAccounts)
	authed.GET("/accounts/:number", s.handleGetAccount)
	authed.POST("/accounts/:number/pin", s.handleChangePIN)
	authed.POST("/accounts/:number/deposit", s.handleDeposit)
	authed.POST("/accounts/:number/withdraw", s.handleWithdraw)

	authed.POST("/transfers", s.handleTransfer)
	authed.GET("/transactions", s.handleListTransactions)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "username": user.Username})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	caller := callerIdentity(c)
	ok, err := s.users.ChangePassword(c.Request.Context(), caller.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, fmt.Errorf("%w: current password does not match", common.ErrUnauthorized))
		return
	}
	c.Status(http.StatusNoContent)
}

type createAccountRequest struct {
	Holder string `json:"holder" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Type   string `json:"type" binding:"required"`
	PIN    string `json:"pin" binding:"required"`
}

func (s *Server) handleCreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	caller := callerIdentity(c)
	account, err := s.accounts.Register(c.Request.Context(), caller, req.Holder, req.Name, req.Type, req.PIN)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accountView(account))
}

func (s *Server) handleListAccounts(c *gin.Context) {
	caller := callerIdentity(c)
	list, err := s.accounts.ListOwned(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]gin.H, 0, len(list))
	for _, a := range list {
		views = append(views, accountView(a))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": views})
}

func (s *Server) handleGetAccount(c *gin.Context) {
	number, err := accountNumberParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	account, err := s.accounts.Get(c.Request.Context(), callerIdentity(c), number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountView(account))
}

type changePINRequest struct {
	CurrentPIN string `json:"current_pin" binding:"required"`
	NewPIN     string `json:"new_pin" binding:"required"`
}

func (s *Server) handleChangePIN(c *gin.Context) {
	number, err := accountNumberParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req changePINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	ok, err := s.accounts.ChangePIN(c.Request.Context(), callerIdentity(c), number, req.CurrentPIN, req.NewPIN)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, fmt.Errorf("%w: current PIN does not match", common.ErrUnauthorized))
		return
	}
	c.Status(http.StatusNoContent)
}

type moneyRequest struct {
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description"`
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: invalid amount %q", common.ErrValidation, raw)
	}
	return amount, nil
}

func (s *Server) handleDeposit(c *gin.Context) {
	s.handleSingleAccountMovement(c, s.ledger.Deposit)
}

func (s *Server) handleWithdraw(c *gin.Context) {
	s.handleSingleAccountMovement(c, s.ledger.Withdraw)
}

func (s *Server) handleSingleAccountMovement(c *gin.Context, op singleMovementFunc) {
	number, err := accountNumberParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req moneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	txn, err := op(c.Request.Context(), callerIdentity(c), number, amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionView(txn))
}

type transferRequest struct {
	From        int64  `json:"from" binding:"required"`
	To          int64  `json:"to" binding:"required"`
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description"`
}

func (s *Server) handleTransfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	txn, err := s.ledger.Transfer(c.Request.Context(), callerIdentity(c), req.From, req.To, amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionView(txn))
}

// handleListTransactions accepts account, type, limit and offset query
// parameters. Unparseable paging values fall back to defaults instead of
// rejecting the request.
func (s *Server) handleListTransactions(c *gin.Context) {
	q := services.ListQuery{Type: c.Query("type")}

	if raw := c.Query("account"); raw != "" {
		number, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, fmt.Errorf("%w: invalid account number %q", common.ErrValidation, raw))
			return
		}
		q.AccountNumber = &number
	}
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			q.Limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			q.Offset = v
		}
	}

	list, err := s.ledger.ListTransactions(c.Request.Context(), callerIdentity(c), q)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]gin.H, 0, len(list))
	for _, t := range list {
		views = append(views, transactionView(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": views})
}

func accountNumberParam(c *gin.Context) (int64, error) {
	raw := c.Param("number")
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid account number %q", common.ErrValidation, raw)
	}
	return number, nil
}
