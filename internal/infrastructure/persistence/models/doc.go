// Package models contains GORM persistence models for the invoicing tables.
// Domain types carry no GORM tags; repositories convert between the two with
// the ToDomain/FromDomain mappers defined here.
package models
