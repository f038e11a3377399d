// Package lookup holds the read-only reference tables that classify pana
// codes and group them into families. Tables are built once at process
// start and never mutated afterwards.
package lookup

import "sort"

// The classification grids. Each grid has ten columns; column i holds the
// codes of class i+1 (the tenth column is class 0). Within a column every
// code shares the same digit-sum class.

// singlePana: twelve single-pana codes per class column.
var singlePana = [12][10]int{
	{128, 129, 120, 130, 140, 123, 124, 125, 126, 127},
	{137, 138, 139, 149, 159, 150, 160, 134, 135, 136},
	{146, 147, 148, 158, 168, 169, 179, 170, 180, 145},
	{236, 156, 157, 167, 230, 178, 250, 189, 234, 190},
	{245, 237, 238, 239, 249, 240, 269, 260, 270, 235},
	{290, 246, 247, 248, 258, 259, 278, 279, 289, 280},
	{380, 345, 256, 257, 267, 268, 340, 350, 360, 370},
	{470, 390, 346, 347, 348, 349, 359, 369, 379, 389},
	{489, 480, 490, 356, 357, 358, 368, 378, 450, 460},
	{560, 570, 580, 590, 456, 367, 458, 459, 478, 479},
	{579, 589, 670, 680, 690, 457, 467, 468, 469, 569},
	{678, 679, 689, 789, 780, 790, 890, 567, 568, 578},
}

// doublePana: nine double-pana codes per class column, triplets excluded.
var doublePana = [9][10]int{
	{100, 110, 166, 112, 113, 114, 115, 116, 117, 118},
	{119, 200, 229, 220, 122, 277, 133, 224, 144, 226},
	{155, 228, 300, 266, 177, 330, 188, 233, 199, 244},
	{227, 255, 337, 338, 339, 448, 223, 288, 225, 299},
	{335, 336, 355, 400, 366, 466, 377, 440, 388, 334},
	{344, 499, 445, 446, 447, 556, 449, 477, 559, 488},
	{399, 660, 599, 455, 500, 880, 557, 558, 577, 550},
	{588, 688, 779, 699, 799, 899, 566, 800, 667, 668},
	{669, 778, 788, 770, 889, 600, 700, 990, 900, 677},
}

// triplets by class column. 0 stands for 000.
var triplets = [10]int{777, 444, 111, 888, 555, 222, 999, 666, 333, 0}

// familyGroups: each group is a grid of eleven columns; codes in the same
// column of a group form one family. The eleventh column carries the
// unlabelled doubles/triplets families.
var familyGroups = [3][][11]int{
	{
		{128, 245, 129, 345, 120, 139, 130, 239, 140, 230, 227},
		{137, 290, 147, 390, 157, 148, 158, 248, 159, 258, 277},
		{236, 470, 246, 480, 256, 346, 356, 347, 456, 357, 222},
		{678, 579, 679, 589, 670, 689, 680, 789, 690, 780, 777},
		{123, 240, 124, 340, 125, 134, 135, 234, 145, 235, 449},
		{178, 259, 179, 359, 170, 189, 180, 289, 190, 280, 499},
		{268, 457, 269, 458, 260, 369, 360, 379, 460, 370, 444},
		{367, 790, 467, 890, 567, 468, 568, 478, 569, 578, 999},
	},
	{
		{146, 380, 138, 156, 238, 247, 167, 257, 168, 249, 166},
		{119, 335, 336, 110, 337, 229, 112, 220, 113, 447, 116},
		{669, 588, 688, 660, 788, 779, 266, 770, 366, 799, 111},
		{169, 358, 368, 160, 378, 279, 126, 270, 136, 479, 666},
		{114, 330, 133, 115, 233, 224, 117, 225, 118, 244, 338},
		{466, 880, 188, 566, 288, 477, 667, 577, 668, 299, 388},
	},
	{
		{489, 560, 237, 570, 490, 580, 149, 590, 267, 348, 888},
		{344, 100, 228, 200, 445, 300, 446, 400, 122, 339, 333},
		{399, 155, 778, 255, 599, 355, 699, 455, 177, 889, 500},
		{349, 150, 278, 250, 459, 350, 469, 450, 127, 389, 550},
		{448, 556, 223, 557, 440, 558, 144, 559, 226, 334, 555},
		{899, 600, 377, 700, 990, 800, 199, 900, 677, 488, 0},
	},
}

// Tables provides O(1) access to the classification and family reference
// data. Construct once with New and share freely; all methods are
// read-only and safe for concurrent use.
type Tables struct {
	sp     map[int][]int // column (1-10) -> single-pana codes
	dp     map[int][]int // column (1-10) -> double-pana codes, no triplets
	dpt    map[int][]int // column (1-10) -> double-pana codes with triplet
	cp     map[int][]int // digit-pair key (0, 11-99) -> codes containing both digits
	family map[int][]int // code -> full family including itself
	pana   map[int]bool  // the full 220-code universe plus triplets
}

// New builds the lookup tables from the embedded reference grids.
func New() *Tables {
	t := &Tables{
		sp:     make(map[int][]int, 10),
		dp:     make(map[int][]int, 10),
		dpt:    make(map[int][]int, 10),
		family: make(map[int][]int),
		pana:   make(map[int]bool),
	}

	for col := 0; col < 10; col++ {
		key := col + 1 // input columns are 1-10; column 10 holds class 0

		sp := make([]int, 0, len(singlePana))
		for _, row := range singlePana {
			sp = append(sp, row[col])
			t.pana[row[col]] = true
		}
		sort.Ints(sp)
		t.sp[key] = sp

		dp := make([]int, 0, len(doublePana))
		for _, row := range doublePana {
			dp = append(dp, row[col])
			t.pana[row[col]] = true
		}
		sort.Ints(dp)
		t.dp[key] = dp

		dpt := append(append([]int{}, dp...), triplets[col])
		sort.Ints(dpt)
		t.dpt[key] = dpt
		t.pana[triplets[col]] = true
	}

	t.cp = buildCycleTable(t.pana)

	for _, group := range familyGroups {
		for col := 0; col < 11; col++ {
			members := make([]int, 0, len(group))
			for _, row := range group {
				members = append(members, row[col])
			}
			sorted := append([]int{}, members...)
			sort.Ints(sorted)
			for _, code := range members {
				t.family[code] = sorted
			}
		}
	}

	return t
}

// buildCycleTable derives the CP table: key ab (11-99) maps to every code
// in the universe containing both digits a and b (both occurrences for
// a == b). Key 0 maps to codes with two zeros.
func buildCycleTable(universe map[int]bool) map[int][]int {
	cp := make(map[int][]int)
	for key := 11; key <= 99; key++ {
		a, b := key/10, key%10
		var members []int
		for code := range universe {
			if containsDigits(code, a, b) {
				members = append(members, code)
			}
		}
		sort.Ints(members)
		cp[key] = members
	}
	var zeros []int
	for code := range universe {
		if containsDigits(code, 0, 0) {
			zeros = append(zeros, code)
		}
	}
	sort.Ints(zeros)
	cp[0] = zeros
	return cp
}

func containsDigits(code, a, b int) bool {
	d := [3]int{code / 100, (code / 10) % 10, code % 10}
	if a == b {
		n := 0
		for _, x := range d {
			if x == a {
				n++
			}
		}
		return n >= 2
	}
	foundA, foundB := false, false
	for _, x := range d {
		if x == a {
			foundA = true
		}
		if x == b {
			foundB = true
		}
	}
	return foundA && foundB
}

// IsPana reports whether code belongs to the pana universe (0 stands
// for 000).
func (t *Tables) IsPana(code int) bool {
	return t.pana[code]
}

// TypeMembers returns the codes belonging to the given table column, or
// nil if the key is absent. The returned slice is shared reference data
// and must not be modified.
func (t *Tables) TypeMembers(table string, column int) []int {
	switch table {
	case "SP":
		return t.sp[column]
	case "DP":
		return t.dp[column]
	case "DPT":
		return t.dpt[column]
	case "CP":
		return t.cp[column]
	}
	return nil
}

// FamilyMembers returns the full family of the reference code, including
// the code itself, or nil if the code has no family.
func (t *Tables) FamilyMembers(code int) []int {
	return t.family[code]
}
