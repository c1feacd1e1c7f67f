// Package analytics implements the batch analytics over stored reports and
// hotspots: spatial clustering, density risk classification, time-window
// trend analysis, and the composed patrol recommendations.
//
// Every entry point is a total function. Degenerate input (non-finite
// coordinates, empty batches, unparseable timestamps) degrades to the
// documented trivial result instead of an error; the dashboard must always
// render something.
package analytics

import (
	"math"
	"sort"

	"github.com/nakurusafety/incident-analytics/internal/domain"
)

// Operational defaults, in degrees. At Nakuru's latitude 0.005 deg is
// roughly 550 m.
const (
	DefaultDistanceThreshold = 0.01
	DefaultDensityRadius     = 0.005
)

// Cluster groups hotspots by agglomerative hierarchical clustering with
// Ward (variance-minimizing) linkage, cutting the dendrogram at
// distanceThreshold. Labels are 0-based in order of first appearance over
// the input. Fewer than two points, or any non-finite coordinate, yields
// the trivial single-cluster labeling.
func Cluster(hotspots []domain.Hotspot, distanceThreshold float64) []domain.ClusterAssignment {
	if len(hotspots) == 0 {
		return []domain.ClusterAssignment{}
	}

	assignments := make([]domain.ClusterAssignment, len(hotspots))
	for i, h := range hotspots {
		assignments[i] = domain.ClusterAssignment{Hotspot: h}
	}
	if len(hotspots) < 2 {
		return assignments
	}

	for _, h := range hotspots {
		if !isFinite(h.Lat) || !isFinite(h.Lon) {
			return assignments
		}
	}

	labels := wardLabels(hotspots, distanceThreshold)
	for i := range assignments {
		assignments[i].Label = labels[i]
	}
	return assignments
}

// wardLabels runs the agglomeration and returns a flat label per point.
//
// Ward linkage distances follow the Lance-Williams recurrence over squared
// distances:
//
//	d(k, i+j)^2 = ((n_i+n_k) d(k,i)^2 + (n_j+n_k) d(k,j)^2 - n_k d(i,j)^2) / (n_i+n_j+n_k)
//
// Ward merge heights are monotone non-decreasing, so agglomeration stops at
// the first merge whose height exceeds the threshold; the clusters active
// at that point are the flat clustering.
func wardLabels(hotspots []domain.Hotspot, threshold float64) []int {
	n := len(hotspots)

	// Squared pairwise Euclidean distances over (lat, lon).
	d2 := make([][]float64, n)
	for i := range d2 {
		d2[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dLat := hotspots[i].Lat - hotspots[j].Lat
			dLon := hotspots[i].Lon - hotspots[j].Lon
			d := dLat*dLat + dLon*dLon
			d2[i][j], d2[j][i] = d, d
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	members := make([][]int, n)
	for i := 0; i < n; i++ {
		active[i] = true
		size[i] = 1
		members[i] = []int{i}
	}

	for {
		// Closest active pair; first pair found wins ties.
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if d2[i][j] < best {
					best = d2[i][j]
					bi, bj = i, j
				}
			}
		}
		if bi < 0 || math.Sqrt(best) > threshold {
			break
		}

		// Merge bj into bi, updating distances to every other cluster.
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			ni, nj, nk := float64(size[bi]), float64(size[bj]), float64(size[k])
			d := ((ni+nk)*d2[bi][k] + (nj+nk)*d2[bj][k] - nk*d2[bi][bj]) / (ni + nj + nk)
			d2[bi][k], d2[k][bi] = d, d
		}
		members[bi] = append(members[bi], members[bj]...)
		size[bi] += size[bj]
		active[bj] = false
	}

	// Flat labels: 0-based, numbered by first appearance in input order.
	rep := make([]int, n)
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		for _, p := range members[i] {
			rep[p] = i
		}
	}
	labels := make([]int, n)
	next := 0
	seen := make(map[int]int, n)
	for p := 0; p < n; p++ {
		label, ok := seen[rep[p]]
		if !ok {
			label = next
			seen[rep[p]] = label
			next++
		}
		labels[p] = label
	}
	return labels
}

// Densify computes, for every hotspot with plausible coordinates, the count
// of hotspots (itself included) within the radius, and classifies the risk
// against the settings thresholds. Results are sorted by descending density
// with input order breaking ties.
func Densify(hotspots []domain.Hotspot, radius float64, settings domain.Settings) []domain.DensityResult {
	if len(hotspots) == 0 {
		return []domain.DensityResult{}
	}
	if radius <= 0 {
		radius = DefaultDensityRadius
	}

	// Filter out points that cannot be on Earth before any math.
	valid := make([]domain.Hotspot, 0, len(hotspots))
	for _, h := range hotspots {
		if !isFinite(h.Lat) || !isFinite(h.Lon) {
			continue
		}
		if h.Lat < -90 || h.Lat > 90 || h.Lon < -180 || h.Lon > 180 {
			continue
		}
		valid = append(valid, h)
	}
	if len(valid) == 0 {
		return []domain.DensityResult{}
	}

	results := make([]domain.DensityResult, 0, len(valid))
	for _, h := range valid {
		density := 0
		for _, other := range valid {
			dLat := h.Lat - other.Lat
			dLon := h.Lon - other.Lon
			if math.Sqrt(dLat*dLat+dLon*dLon) <= radius {
				density++
			}
		}

		risk := domain.RiskLow
		switch {
		case density >= settings.CriticalDensityThreshold:
			risk = domain.RiskCritical
		case density >= settings.HighDensityThreshold:
			risk = domain.RiskHigh
		case density >= settings.MediumDensityThreshold:
			risk = domain.RiskMedium
		}

		results = append(results, domain.DensityResult{
			Hotspot:   h,
			Lat:       h.Lat,
			Lon:       h.Lon,
			Density:   density,
			RiskLevel: risk,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Density > results[j].Density
	})
	return results
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
