// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"github.com/apache/arrow/go/v10/arrow"
)

// Column names read from the registers.
const (
	ColPNR = "PNR"

	// family
	ColBirthDate       = "BIRTH_DATE"
	ColFatherID        = "FATHER_ID"
	ColFatherBirthDate = "FATHER_BIRTH_DATE"
	ColMotherID        = "MOTHER_ID"
	ColMotherBirthDate = "MOTHER_BIRTH_DATE"
	ColFamilyID        = "FAMILY_ID"

	// bef
	ColFamilySize   = "ANTPERSF"
	ColMunicipality = "KOM"
	ColFamilyType   = "FAMILIE_TYPE"
	ColCitizenship  = "STATSB"

	// ind
	ColIncome = "PERINDKIALT_13"

	// uddf
	ColEducation = "HFAUDD"

	// akm
	ColSocio    = "SOCIO"
	ColSocio02  = "SOCIO02"
	ColSocio13  = "SOCIO13"
	ColPreSocio = "PRE_SOCIO"
)

// IDColumns are the names a subject identifier column may have, in order of
// preference.
var IDColumns = []string{"PNR", "pnr", "child_pnr", "child_id"}

// IDColumn returns the index of the first identifier column in schema, or
// -1 if there is none.
func IDColumn(schema *arrow.Schema) int {
	for _, name := range IDColumns {
		if idx := schema.FieldIndices(name); len(idx) > 0 {
			return idx[0]
		}
	}
	return -1
}

func utf8(name string, nullable bool) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: nullable}
}

func int32f(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int32, Nullable: true}
}

func date32(name string, nullable bool) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.FixedWidthTypes.Date32, Nullable: nullable}
}

var schemas = [...]*arrow.Schema{
	Family: arrow.NewSchema([]arrow.Field{
		utf8(ColPNR, false),
		date32(ColBirthDate, false),
		utf8(ColFatherID, true),
		date32(ColFatherBirthDate, true),
		utf8(ColMotherID, true),
		date32(ColMotherBirthDate, true),
		utf8(ColFamilyID, true),
	}, nil),
	Demographics: arrow.NewSchema([]arrow.Field{
		utf8(ColPNR, false),
		int32f(ColFamilySize),
		int32f(ColMunicipality),
		int32f(ColFamilyType),
		utf8(ColCitizenship, true),
	}, nil),
	Income: arrow.NewSchema([]arrow.Field{
		utf8(ColPNR, false),
		{Name: ColIncome, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil),
	Education: arrow.NewSchema([]arrow.Field{
		utf8(ColPNR, false),
		utf8(ColEducation, true),
	}, nil),
	Employment: arrow.NewSchema([]arrow.Field{
		utf8(ColPNR, false),
		int32f(ColSocio),
		int32f(ColSocio02),
		int32f(ColSocio13),
		int32f(ColPreSocio),
	}, nil),
}

// Schema is the target schema used when reading the register's files.
// Columns are matched to a file's own schema by name; those the file lacks
// are skipped, and the subject id column is always read.
func (k Kind) Schema() *arrow.Schema {
	if k < 0 || int(k) >= len(schemas) {
		return nil
	}
	return schemas[k]
}
