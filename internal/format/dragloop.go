package format

// Shell drag helper formats. They only exist while a drag gesture is in
// progress and are never part of the application payload.
const (
	ComputedDragImage     = "ComputedDragImage"
	DisableDragText       = "DisableDragText"
	DragContext           = "DragContext"
	DragImageBits         = "DragImageBits"
	DragSourceHelperFlags = "DragSourceHelperFlags"
	DragWindow            = "DragWindow"
	DropDescription       = "DropDescription"
	InShellDragLoop       = "InShellDragLoop"
	IsComputingImage      = "IsComputingImage"
	IsShowingLayered      = "IsShowingLayered"
	IsShowingText         = "IsShowingText"
	UsingDefaultDragImage = "UsingDefaultDragImage"
)

// IsDragLoopFormat reports whether name is private to a drag loop.
func IsDragLoopFormat(name string) bool {
	switch name {
	case ComputedDragImage, DisableDragText, DragContext, DragImageBits,
		DragSourceHelperFlags, DragWindow, DropDescription, InShellDragLoop,
		IsComputingImage, IsShowingLayered, IsShowingText, UsingDefaultDragImage:
		return true
	}
	return false
}
