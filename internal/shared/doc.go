// Package shared holds helpers that several flowpulse packages need but that
// belong to no single layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger, which capture slog records so
//     tests can assert on messages and attributes
//   - flow reading fixtures (DailyReadings, HalfYear) and encoders that turn
//     them into .xlsx or .csv uploads
//
// Example usage:
//
//	func TestUpload(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    body := testutil.Workbook(t, testutil.HalfYear())
//	    // ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
