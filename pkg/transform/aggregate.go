package transform

import (
	"sort"

	"github.com/David-Botos/data-transform/pkg/model"
)

// Aggregate partitions records by (age group, marital status) and computes
// the record count and income sum of each partition. Missing key components
// form their own partitions; no record is excluded.
func Aggregate(records []model.CleanRecord) map[model.GroupKey]*model.GroupStats {
	groups := make(map[model.GroupKey]*model.GroupStats)
	for i := range records {
		key := model.NewGroupKey(records[i].AgeGroup, records[i].MaritalStatus)
		stats, ok := groups[key]
		if !ok {
			stats = &model.GroupStats{Key: key}
			groups[key] = stats
		}
		stats.TotalRecords++
		stats.IncomeSum += float64(records[i].Income)
	}
	return groups
}

// Join attaches each record's group statistics in place, keeping order
func Join(records []model.CleanRecord, groups map[model.GroupKey]*model.GroupStats) {
	for i := range records {
		stats := groups[model.NewGroupKey(records[i].AgeGroup, records[i].MaritalStatus)]
		if stats == nil {
			continue
		}
		records[i].GroupTotalRecords = stats.TotalRecords
		records[i].GroupAvgIncome = stats.AvgIncome()
	}
}

// SortedGroups returns the groups ordered by age group then marital status,
// missing components last
func SortedGroups(groups map[model.GroupKey]*model.GroupStats) []*model.GroupStats {
	sorted := make([]*model.GroupStats, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Key, sorted[j].Key
		if a.AgeGroup != b.AgeGroup {
			return lessNullable(a.AgeGroup.Valid, b.AgeGroup.Valid, ageGroupRank(a.AgeGroup.AgeGroup) < ageGroupRank(b.AgeGroup.AgeGroup))
		}
		return lessNullable(a.MaritalStatus.Valid, b.MaritalStatus.Valid, a.MaritalStatus.String < b.MaritalStatus.String)
	})
	return sorted
}

func lessNullable(aValid, bValid, less bool) bool {
	if aValid != bValid {
		return aValid
	}
	return less
}

func ageGroupRank(g model.AgeGroup) int {
	for i, bin := range []model.AgeGroup{
		model.AgeGroupTeen,
		model.AgeGroupYoungAdult,
		model.AgeGroupMiddleAged,
		model.AgeGroupSenior,
		model.AgeGroupElderly,
	} {
		if g == bin {
			return i
		}
	}
	return -1
}
