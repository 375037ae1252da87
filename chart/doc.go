// Package chart lays out stacked column series and keeps the primitives
// drawn for them in step with their data.
//
// A redraw runs in four phases. Each series maps its items to ChartPoints
// with a Mapper. The points of every series in a StackGroup are stacked per
// category, in registration order, either by value or by percentage of the
// category total. Each series then reconciles its PointViewPool with the
// new points: primitives of points whose Key persists are moved in place,
// new keys get new primitives and vanished keys are released. Finally hover
// shapes and data labels are created or moved for the surviving views.
//
// The package never draws anything itself. It issues instructions to a
// Surface, which converts data units to device space and renders.
package chart
