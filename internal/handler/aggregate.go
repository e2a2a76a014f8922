package handler

import (
	"math"
	"sort"
	"strconv"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
)

// Aggregate считает агрегаты по точкам, упорядоченным по времени.
//
// Медиана берётся как верхний из двух средних элементов при чётном количестве.
// AUC считается методом трапеций в единицах "значение * секунда".
// Нечисловые значения пропускаются. Если значений нет, возвращается nil.
func Aggregate(points []repository.DataPoint) *models.Aggregate {
	values := make([]float64, 0, len(points))
	times := make([]float64, 0, len(points))
	for _, p := range points {
		v, ok := toFloat(p.Value)
		if !ok {
			continue
		}
		values = append(values, v)
		times = append(times, float64(p.Timestamp.UnixMilli())/1000)
	}
	if len(values) == 0 {
		return nil
	}

	agg := &models.Aggregate{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for i, v := range values {
		agg.Min = math.Min(agg.Min, v)
		agg.Max = math.Max(agg.Max, v)
		sum += v
		if i > 0 {
			agg.AUC += (v + values[i-1]) / 2 * (times[i] - times[i-1])
		}
	}
	agg.Mean = sum / float64(len(values))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	agg.Median = sorted[len(sorted)/2]
	return agg
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
