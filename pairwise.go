package hubness

import "sync"

// PairwiseDistances computes the full n×n distance matrix.
// data is flat row-major with n rows and dims columns.
// Returns flat []float64 of length n*n.
func PairwiseDistances(data []float64, n, dims int, metric DistanceMetric) []float64 {
	result := make([]float64, n*n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := metric.Distance(data[i*dims:(i+1)*dims], data[j*dims:(j+1)*dims])
			result[i*n+j] = d
			result[j*n+i] = d
		}
	}

	return result
}

// PairwiseDistancesParallel computes the full n×n distance matrix using
// multiple goroutines. numWorkers controls the degree of parallelism; if <= 1,
// it falls back to single-threaded PairwiseDistances.
//
// The result is bitwise identical to PairwiseDistances: a flat []float64 of
// length n×n in row-major order.
func PairwiseDistancesParallel(data []float64, n, dims int, metric DistanceMetric, numWorkers int) []float64 {
	if numWorkers <= 1 || n <= 1 {
		return PairwiseDistances(data, n, dims, metric)
	}

	result := make([]float64, n*n)

	// Split rows across workers. Each worker handles a contiguous range of
	// "source" rows and computes dist(i,j) for all j > i in that range.
	// Since row ranges don't overlap, no synchronization is needed for writes.
	var wg sync.WaitGroup

	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				for j := i + 1; j < n; j++ {
					d := metric.Distance(data[i*dims:(i+1)*dims], data[j*dims:(j+1)*dims])
					result[i*n+j] = d
					result[j*n+i] = d
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
	return result
}

// CrossDistances computes the rectangular query-to-train distance block:
// a flat []float64 of length qn*n in row-major order, where entry (q, j) is
// the distance from query row q to training row j.
func CrossDistances(query []float64, qn int, train []float64, n, dims int, metric DistanceMetric) []float64 {
	result := make([]float64, qn*n)

	for q := 0; q < qn; q++ {
		qv := query[q*dims : (q+1)*dims]
		row := result[q*n : (q+1)*n]
		for j := 0; j < n; j++ {
			row[j] = metric.Distance(qv, train[j*dims:(j+1)*dims])
		}
	}

	return result
}

// CrossDistancesParallel computes the query-to-train distance block using
// multiple goroutines, partitioned by query row. Falls back to sequential
// CrossDistances if numWorkers <= 1.
func CrossDistancesParallel(query []float64, qn int, train []float64, n, dims int, metric DistanceMetric, numWorkers int) []float64 {
	if numWorkers <= 1 || qn <= 1 {
		return CrossDistances(query, qn, train, n, dims, metric)
	}

	result := make([]float64, qn*n)

	var wg sync.WaitGroup
	rowsPerWorker := (qn + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > qn {
			endRow = qn
		}
		if startRow >= qn {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for q := start; q < end; q++ {
				qv := query[q*dims : (q+1)*dims]
				row := result[q*n : (q+1)*n]
				for j := 0; j < n; j++ {
					row[j] = metric.Distance(qv, train[j*dims:(j+1)*dims])
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
	return result
}
