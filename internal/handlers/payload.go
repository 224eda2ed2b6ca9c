package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charlesng35/artisan/internal/catalog"
)

// flexNumber accepts a JSON number or a numeric string. The storefront admin
// forms post numbers as strings; an empty string decodes as zero.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

type productPayload struct {
	Name          string      `json:"name" validate:"required,notblank,max=200"`
	Description   *string     `json:"description"`
	Price         flexNumber  `json:"price" validate:"gt=0"`
	OriginalPrice *flexNumber `json:"originalPrice" validate:"omitempty,gte=0"`
	Discount      *string     `json:"discount" validate:"omitempty,max=40"`
	Image         string      `json:"image" validate:"required,notblank"`
	CategoryID    string      `json:"categoryId" validate:"required,notblank"`
	Stock         flexNumber  `json:"stock" validate:"gte=0"`
	Tag           *string     `json:"tag" validate:"omitempty,max=40"`
}

func (p productPayload) input() catalog.ProductInput {
	input := catalog.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       float64(p.Price),
		Discount:    p.Discount,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Stock:       int(p.Stock),
		Tag:         p.Tag,
	}
	if p.OriginalPrice != nil && *p.OriginalPrice > 0 {
		v := float64(*p.OriginalPrice)
		input.OriginalPrice = &v
	}
	return input
}

type categoryPayload struct {
	Name  string  `json:"name" validate:"required,notblank,max=120"`
	Image *string `json:"image"`
}

func (p categoryPayload) input() catalog.CategoryInput {
	return catalog.CategoryInput{Name: p.Name, Image: p.Image}
}
