// Package services holds the application logic between controllers and repositories.
//
// Services defined in this package:
//   - SchedulingService: generates, previews, commits and clears term schedules
package services
