package zmachine

import "github.com/pmcgill/zvm/zobject"

// RemoveObject detaches an object from the tree: it is unlinked from its
// parent's child chain and left with no parent and no sibling.
func (z *ZMachine) RemoveObject(objId uint16) {
	object := zobject.GetObject(objId, &z.Core, z.Alphabets)
	if object.Parent != 0 {
		oldParent := zobject.GetObject(object.Parent, &z.Core, z.Alphabets)

		if oldParent.Child == object.Id {
			oldParent.SetChild(object.Sibling, &z.Core)
		} else {
			// Walk the sibling chain to the link pointing at us
			currObjId := oldParent.Child
			for currObjId != 0 {
				currObj := zobject.GetObject(currObjId, &z.Core, z.Alphabets)
				if currObj.Sibling == object.Id {
					currObj.SetSibling(object.Sibling, &z.Core)
					break
				}
				currObjId = currObj.Sibling
			}
		}

		object.SetParent(0, &z.Core)
	}

	object.SetSibling(0, &z.Core)
}

// MoveObject makes objId the first child of newParent, detaching it from
// wherever it currently sits.
func (z *ZMachine) MoveObject(objId uint16, newParent uint16) {
	object := zobject.GetObject(objId, &z.Core, z.Alphabets)

	z.RemoveObject(object.Id)

	// Fetch the destination after the detach: if the object was already a
	// child of it, the detach just rewrote the destination's child link
	destination := zobject.GetObject(newParent, &z.Core, z.Alphabets)

	object.SetSibling(destination.Child, &z.Core)
	object.SetParent(destination.Id, &z.Core)
	destination.SetChild(object.Id, &z.Core)
}
