package models

import "time"

// AnimalCategory distinguishes the kinds of records kept on the farm.
type AnimalCategory string

const (
	CategoryGoat     AnimalCategory = "goat"
	CategorySheep    AnimalCategory = "sheep"
	CategoryCattle   AnimalCategory = "cattle"
	CategoryCropPlot AnimalCategory = "crop-plot"
)

// Sex of an animal. Crop plots use SexNone.
type Sex string

const (
	SexFemale Sex = "female"
	SexMale   Sex = "male"
	SexNone   Sex = "none"
)

// AnimalSource records how the animal joined the herd.
type AnimalSource string

const (
	SourceFarmBorn  AnimalSource = "farm-born"
	SourcePurchased AnimalSource = "purchased"
)

// AnimalStatus is the current lifecycle state of the record.
type AnimalStatus string

const (
	StatusActive AnimalStatus = "active"
	StatusSold   AnimalStatus = "sold"
	StatusDead   AnimalStatus = "dead"
)

// Animal is a livestock (or crop-plot) record. The record itself is owned by
// the surrounding CRUD layer; this core only reads it to derive obligations.
type Animal struct {
	ID        string         `bson:"_id" json:"id"`
	Tag       string         `bson:"tag" json:"tag"`
	Category  AnimalCategory `bson:"category" json:"category" binding:"required"`
	Sex       Sex            `bson:"sex" json:"sex"`
	BirthDate time.Time      `bson:"birth_date" json:"birth_date" binding:"required"`
	Source    AnimalSource   `bson:"source" json:"source"`
	Status    AnimalStatus   `bson:"status" json:"status"`
	WeightKg  float64        `bson:"weight_kg" json:"weight_kg"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// AgeInMonths returns the animal's age in whole calendar months at the given time.
func (a Animal) AgeInMonths(at time.Time) int {
	months := (at.Year()-a.BirthDate.Year())*12 + int(at.Month()) - int(a.BirthDate.Month())
	if at.Day() < a.BirthDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// AgeInDays returns the animal's age in whole days at the given time.
func (a Animal) AgeInDays(at time.Time) int {
	days := int(at.Sub(a.BirthDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
