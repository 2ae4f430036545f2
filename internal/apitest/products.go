package apitest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type product struct {
	id          int64
	name        string
	description string
	price       decimal.Decimal
}

func (p *product) object() object {
	return object{
		{"id", p.id},
		{"name", p.name},
		{"description", p.description},
		{"price", number(p.price)},
	}
}

type productRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
}

func (s *Server) productByParam(c *gin.Context) (*product, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product ID")
		return nil, false
	}
	p, ok := s.products[id]
	if !ok {
		respondError(c, http.StatusNotFound, "product not found")
		return nil, false
	}
	return p, true
}

func (s *Server) nameTaken(name string, except int64) bool {
	for _, p := range s.products {
		if p.id != except && strings.EqualFold(p.name, name) {
			return true
		}
	}
	return false
}

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.products))
	for id := int64(1); id <= s.seq; id++ {
		if p, ok := s.products[id]; ok {
			out = append(out, s.render(p.object()))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.productByParam(c); ok {
		c.JSON(http.StatusOK, s.render(p.object()))
	}
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(req.Name, 0) {
		respondError(c, http.StatusBadRequest, "product with this name already exists")
		return
	}
	p := &product{
		id:          s.nextID(),
		name:        req.Name,
		description: req.Description,
		price:       decimal.NewFromFloat(req.Price),
	}
	s.products[p.id] = p
	c.JSON(http.StatusCreated, s.render(p.object()))
}

func (s *Server) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.productByParam(c)
	if !ok {
		return
	}
	if s.nameTaken(req.Name, p.id) {
		respondError(c, http.StatusBadRequest, "product with this name already exists")
		return
	}
	p.name = req.Name
	p.description = req.Description
	p.price = decimal.NewFromFloat(req.Price)
	c.JSON(http.StatusOK, s.render(p.object()))
}

func (s *Server) deleteProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.productByParam(c)
	if !ok {
		return
	}
	delete(s.products, p.id)
	c.Status(http.StatusNoContent)
}
