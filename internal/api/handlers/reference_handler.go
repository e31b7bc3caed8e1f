package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ficr/insight/internal/reference"
)

// ReferenceHandler serves the static FiCR vocabulary listing.
type ReferenceHandler struct {
	vocab *reference.Vocabulary
}

func NewReferenceHandler(vocab *reference.Vocabulary) *ReferenceHandler {
	return &ReferenceHandler{vocab: vocab}
}

func (h *ReferenceHandler) GetClasses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"namespace": h.vocab.Namespace,
		"classes":   h.vocab.Classes,
	})
}

func (h *ReferenceHandler) GetProperties(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"namespace":           h.vocab.Namespace,
		"object_properties":   h.vocab.ObjectProperties,
		"datatype_properties": h.vocab.DatatypeProperties,
	})
}
