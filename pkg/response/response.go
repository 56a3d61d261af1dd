// Package response defines the JSON envelope written by the HTTP API.
package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const StatusError = "error"

var (
	EmptyRequestBodyResponse = Response{
		Status:  StatusError,
		Error:   "Empty Request Body",
		Message: "Le corps de la requête est vide.",
	}

	InvalidRequestBodyResponse = Response{
		Status:  StatusError,
		Error:   "Invalid Request Body",
		Message: "Le corps de la requête n'est pas un JSON valide.",
	}

	ResourceNotFoundResponse = Response{
		Status:  StatusError,
		Error:   "Resource Not Found",
		Message: "La ressource demandée est introuvable.",
	}

	UnauthorizedResponse = Response{
		Status:  StatusError,
		Error:   "Unauthorized",
		Message: "Authentification requise.",
	}

	ForbiddenResponse = Response{
		Status:  StatusError,
		Error:   "Forbidden",
		Message: "Vous n'avez pas accès à cette ressource.",
	}

	ServerErrorResponse = Response{
		Status:  StatusError,
		Error:   "Server Error",
		Message: "Une erreur interne est survenue. Réessayez plus tard.",
	}
)

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details []any  `json:"details,omitempty"`
}

func ErrorResponse(errMsg, msg string, details ...any) Response {
	return Response{
		Status:  StatusError,
		Error:   errMsg,
		Message: msg,
		Details: details,
	}
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func ValidationErrorResponse(err error) Response {
	errs := getValidationErrors(err)

	details := make([]any, 0, len(errs))
	for _, e := range errs {
		details = append(details, e)
	}

	return Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "La requête contient des champs invalides.",
		Details: details,
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	out := make([]validationError, 0, len(validationErrs))
	for _, e := range validationErrs {
		out = append(out, validationError{
			Field: e.Field(),
			Value: e.Value(),
			Issue: issueForTag(e.Tag(), e.Param()),
		})
	}

	return out
}

func issueForTag(tag, param string) string {
	switch tag {
	case "required":
		return "Ce champ est obligatoire."
	case "url", "target_url":
		return "URL invalide."
	case "email":
		return "Email invalide."
	case "min", "gte":
		return fmt.Sprintf("Doit être au moins %s.", param)
	case "max", "lte":
		return fmt.Sprintf("Doit être au plus %s.", param)
	case "oneof":
		return fmt.Sprintf("Doit être l'une des valeurs : %s.", param)
	case "alphanum":
		return "Seuls les lettres et les chiffres sont autorisés."
	case "hexcolor":
		return "Couleur invalide."
	default:
		return "Valeur invalide."
	}
}
