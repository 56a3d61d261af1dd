// Package entitlement maps subscription plans to the features and quotas they grant.
// Everything here is a pure lookup over a static table.
package entitlement

import (
	"fmt"

	"github.com/vadimbarashkov/qrlink/internal/entity"
)

// Unlimited marks a counted resource without an upper bound.
const Unlimited = -1

// Feature is a boolean capability granted by a plan.
type Feature string

const (
	FeatureAPIAccess          Feature = "api_access"
	FeatureCustomDomains      Feature = "custom_domains"
	FeaturePasswordProtection Feature = "password_protection"
	FeatureSVGExport          Feature = "svg_export"
	FeaturePDFExport          Feature = "pdf_export"
	FeatureTeamManagement     Feature = "team_management"
	FeaturePremiumTemplates   Feature = "premium_templates"
	FeatureAdvancedAnalytics  Feature = "advanced_analytics"
	FeatureABTesting          Feature = "ab_testing"
)

// Resource is a counted quota granted by a plan.
type Resource string

const (
	ResourceQRCodes       Resource = "qr_codes"
	ResourceShortLinks    Resource = "short_links"
	ResourceScansPerMonth Resource = "scans_per_month"
	ResourceTeamSeats     Resource = "team_seats"
)

// Limits is the entitlement set of a single plan.
type Limits struct {
	MaxQRCodes         int  `json:"maxQrCodes"`
	MaxShortLinks      int  `json:"maxShortLinks"`
	ScansPerMonth      int  `json:"scansPerMonth"`
	TeamSeats          int  `json:"teamSeats"`
	APIAccess          bool `json:"apiAccess"`
	CustomDomains      bool `json:"customDomains"`
	PasswordProtection bool `json:"passwordProtection"`
	SVGExport          bool `json:"svgExport"`
	PDFExport          bool `json:"pdfExport"`
	TeamManagement     bool `json:"teamManagement"`
	PremiumTemplates   bool `json:"premiumTemplates"`
	AdvancedAnalytics  bool `json:"advancedAnalytics"`
	ABTesting          bool `json:"abTesting"`
}

var plans = map[entity.Plan]Limits{
	entity.PlanFree: {
		MaxQRCodes:    5,
		MaxShortLinks: 20,
		ScansPerMonth: 1000,
	},
	entity.PlanPro: {
		MaxQRCodes:         100,
		MaxShortLinks:      1000,
		ScansPerMonth:      50000,
		APIAccess:          true,
		PasswordProtection: true,
		SVGExport:          true,
		PremiumTemplates:   true,
		AdvancedAnalytics:  true,
		ABTesting:          true,
	},
	entity.PlanBusiness: {
		MaxQRCodes:         Unlimited,
		MaxShortLinks:      Unlimited,
		ScansPerMonth:      Unlimited,
		TeamSeats:          10,
		APIAccess:          true,
		CustomDomains:      true,
		PasswordProtection: true,
		SVGExport:          true,
		PDFExport:          true,
		TeamManagement:     true,
		PremiumTemplates:   true,
		AdvancedAnalytics:  true,
		ABTesting:          true,
	},
}

var messages = map[Feature]string{
	FeatureAPIAccess:          "L'accès API nécessite un abonnement PRO ou BUSINESS.",
	FeatureCustomDomains:      "Les domaines personnalisés sont réservés à l'abonnement BUSINESS.",
	FeaturePasswordProtection: "La protection par mot de passe nécessite un abonnement PRO ou BUSINESS.",
	FeatureSVGExport:          "L'export SVG nécessite un abonnement PRO ou BUSINESS.",
	FeaturePDFExport:          "L'export PDF est réservé à l'abonnement BUSINESS.",
	FeatureTeamManagement:     "La gestion d'équipe est réservée à l'abonnement BUSINESS.",
	FeaturePremiumTemplates:   "Les modèles premium nécessitent un abonnement PRO ou BUSINESS.",
	FeatureAdvancedAnalytics:  "Les statistiques avancées nécessitent un abonnement PRO ou BUSINESS.",
	FeatureABTesting:          "Les tests A/B nécessitent un abonnement PRO ou BUSINESS.",
}

var limitMessages = map[Resource]string{
	ResourceQRCodes:       "Vous avez atteint le nombre maximum de QR codes de votre abonnement. Passez à un abonnement supérieur.",
	ResourceShortLinks:    "Vous avez atteint le nombre maximum de liens courts de votre abonnement. Passez à un abonnement supérieur.",
	ResourceScansPerMonth: "Vous avez atteint le nombre de scans mensuels de votre abonnement. Passez à un abonnement supérieur.",
	ResourceTeamSeats:     "Toutes les places de votre équipe sont occupées. Passez à un abonnement supérieur.",
}

// DeniedError is returned when a plan does not grant a feature or a quota is exhausted.
// It unwraps to entity.ErrFeatureNotAvailable or entity.ErrPlanLimit.
type DeniedError struct {
	Plan     entity.Plan
	Feature  Feature
	Resource Resource
	Message  string
	err      error
}

func (e *DeniedError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("plan %s: %s limit reached", e.Plan, e.Resource)
	}
	return fmt.Sprintf("plan %s: %s not available", e.Plan, e.Feature)
}

func (e *DeniedError) Unwrap() error {
	return e.err
}

// For returns the limits of a plan. Unknown plans get the FREE limits.
func For(plan entity.Plan) Limits {
	if l, ok := plans[plan]; ok {
		return l
	}
	return plans[entity.PlanFree]
}

// All returns the full plan table.
func All() map[entity.Plan]Limits {
	out := make(map[entity.Plan]Limits, len(plans))
	for p, l := range plans {
		out[p] = l
	}
	return out
}

// Has reports whether the plan grants the feature.
func (l Limits) Has(f Feature) bool {
	switch f {
	case FeatureAPIAccess:
		return l.APIAccess
	case FeatureCustomDomains:
		return l.CustomDomains
	case FeaturePasswordProtection:
		return l.PasswordProtection
	case FeatureSVGExport:
		return l.SVGExport
	case FeaturePDFExport:
		return l.PDFExport
	case FeatureTeamManagement:
		return l.TeamManagement
	case FeaturePremiumTemplates:
		return l.PremiumTemplates
	case FeatureAdvancedAnalytics:
		return l.AdvancedAnalytics
	case FeatureABTesting:
		return l.ABTesting
	default:
		return false
	}
}

// Limit returns the quota of a counted resource, Unlimited when there is no bound.
func (l Limits) Limit(r Resource) int {
	switch r {
	case ResourceQRCodes:
		return l.MaxQRCodes
	case ResourceShortLinks:
		return l.MaxShortLinks
	case ResourceScansPerMonth:
		return l.ScansPerMonth
	case ResourceTeamSeats:
		return l.TeamSeats
	default:
		return 0
	}
}

// Allow checks that the plan grants the feature.
func Allow(plan entity.Plan, f Feature) error {
	if For(plan).Has(f) {
		return nil
	}

	return &DeniedError{
		Plan:    plan,
		Feature: f,
		Message: messages[f],
		err:     entity.ErrFeatureNotAvailable,
	}
}

// AllowCount checks that one more resource fits in the plan quota given the current count.
func AllowCount(plan entity.Plan, r Resource, current int64) error {
	limit := For(plan).Limit(r)
	if limit == Unlimited || current < int64(limit) {
		return nil
	}

	return &DeniedError{
		Plan:     plan,
		Resource: r,
		Message:  limitMessages[r],
		err:      entity.ErrPlanLimit,
	}
}
