package ictus

// HandleKeyBoardEvent exposes the key loop to the external tests
var HandleKeyBoardEvent = (*View).handleKeyBoardEvent
